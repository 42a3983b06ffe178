package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"
)

// Nature tells whether a transaction brings money in or takes money out.
// The string values match what the spreadsheet displays.
type Nature string

const (
	NatureIncome  Nature = "Receita"
	NatureExpense Nature = "Despesa"
)

// PaymentMethod is inferred from the statement description.
type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "Pix"
	PaymentCard PaymentMethod = "Cartao"
)

// Transaction is one statement line as produced by the statement parser.
// Amount is signed: money in is positive, money out is negative.
type Transaction struct {
	Date        civil.Date
	Description string
	Amount      float64
}

// ContentHash is the MD5 digest of "DD/MM/YYYY|description|amount" and
// identifies a transaction across imports. The amount is rendered with the
// shortest decimal representation, so -23.50 hashes as "-23.5". Any change to
// this format invalidates the whole history table.
func (t Transaction) ContentHash() string {
	text := fmt.Sprintf("%s|%s|%s", FormatDate(t.Date), t.Description, FormatAmount(t.Amount))
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Classified is a Transaction routed by the rule engine.
type Classified struct {
	Transaction

	Hash     string
	Category string
	Nature   Nature
	Fixed    bool
	Payment  PaymentMethod
}

// FormatDate renders a date the way the spreadsheet and the content hash
// expect it: DD/MM/YYYY.
func FormatDate(d civil.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// FormatAmount renders an amount for the content hash and the history table.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
