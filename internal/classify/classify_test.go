package classify

import (
	"testing"

	"github.com/sampires/financas-bot/internal/config"
	"github.com/sampires/financas-bot/internal/domain"
)

func TestClassify(t *testing.T) {
	rules := config.Default().Rules

	tests := []struct {
		name        string
		description string
		amount      float64
		category    string
		nature      domain.Nature
		fixed       bool
	}{
		{
			name:        "positive amount is income regardless of description",
			description: "ifood delivery netflix aluguel",
			amount:      150.00,
			category:    IncomeCategory,
			nature:      domain.NatureIncome,
		},
		{
			name:        "income marker with non-positive amount",
			description: "Transferência recebida pelo Pix",
			amount:      0,
			category:    IncomeCategory,
			nature:      domain.NatureIncome,
		},
		{
			name:        "salario marker",
			description: "SALARIO EMPRESA LTDA",
			amount:      -1,
			category:    IncomeCategory,
			nature:      domain.NatureIncome,
		},
		{
			name:        "ifood is Delivery",
			description: "IFOOD *RESTAURANTE",
			amount:      -35.90,
			category:    "Delivery",
			nature:      domain.NatureExpense,
		},
		{
			name:        "uber is Transporte",
			description: "UBER *TRIP",
			amount:      -23.50,
			category:    "Transporte",
			nature:      domain.NatureExpense,
		},
		{
			name:        "netflix is fixed and matches Lazer before Assinaturas",
			description: "NETFLIX.COM",
			amount:      -39.90,
			category:    "Lazer",
			nature:      domain.NatureExpense,
			fixed:       true,
		},
		{
			name:        "aluguel is Casa and fixed",
			description: "PAGAMENTO ALUGUEL",
			amount:      -1200,
			category:    "Casa",
			nature:      domain.NatureExpense,
			fixed:       true,
		},
		{
			name:        "fixed keyword with punctuation variance",
			description: "A.L.U-G U E L imobiliaria",
			amount:      -1200,
			category:    FallbackCategory,
			nature:      domain.NatureExpense,
			fixed:       true,
		},
		{
			name:        "academia is fixed but has no category",
			description: "ACADEMIA SMARTFIT",
			amount:      -99.90,
			category:    FallbackCategory,
			nature:      domain.NatureExpense,
			fixed:       true,
		},
		{
			name:        "unknown merchant falls back",
			description: "PAGAMENTO BOLETO 123",
			amount:      -50,
			category:    FallbackCategory,
			nature:      domain.NatureExpense,
		},
		{
			name:        "zero amount is an expense",
			description: "AJUSTE",
			amount:      0,
			category:    FallbackCategory,
			nature:      domain.NatureExpense,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, nature, fixed := Classify(rules, tt.description, tt.amount)
			if category != tt.category {
				t.Errorf("category = %q, want %q", category, tt.category)
			}
			if nature != tt.nature {
				t.Errorf("nature = %q, want %q", nature, tt.nature)
			}
			if fixed != tt.fixed {
				t.Errorf("fixed = %v, want %v", fixed, tt.fixed)
			}
		})
	}
}

func TestClassifyRuleOrderWins(t *testing.T) {
	rules := config.Rules{
		Categories: []config.CategoryRule{
			{Name: "First", Keywords: []string{"mercado"}},
			{Name: "Second", Keywords: []string{"mercado", "feira"}},
		},
	}

	category, _, _ := Classify(rules, "MERCADO DA FEIRA", -10)
	if category != "First" {
		t.Errorf("category = %q, want First (declared order must win)", category)
	}
}

func TestPaymentMethod(t *testing.T) {
	tests := []struct {
		description string
		want        domain.PaymentMethod
	}{
		{"Transferência enviada pelo Pix", domain.PaymentPix},
		{"Compra no cartao de credito", domain.PaymentCard},
		{"CREDITO PARCELADO", domain.PaymentCard},
		// No marker at all falls back to Pix.
		{"UBER *TRIP", domain.PaymentPix},
		// Pix wins when both markers appear.
		{"pix via cartao", domain.PaymentPix},
	}

	for _, tt := range tests {
		if got := PaymentMethod(tt.description); got != tt.want {
			t.Errorf("PaymentMethod(%q) = %q, want %q", tt.description, got, tt.want)
		}
	}
}
