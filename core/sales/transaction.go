// Package sales - Sales transactions and catalog enrichment
package sales

import (
	"fmt"
	"strconv"
	"strings"
)

// Transaction is one sales record. Absent fields are "".
type Transaction struct {
	TransactionID string `json:"TransactionID"`
	Date          string `json:"Date"`
	ProductID     string `json:"ProductID"`
	ProductName   string `json:"ProductName"`
	Quantity      string `json:"Quantity"`
	UnitPrice     string `json:"UnitPrice"`
	CustomerID    string `json:"CustomerID"`
	Region        string `json:"Region"`
}

// EnrichedTransaction is a Transaction decorated with catalog fields.
// APIRating is nil when unmatched and renders as "", whereas a matched product
// with no rating carries 0.
type EnrichedTransaction struct {
	Transaction

	APICategory string   `json:"API_Category"`
	APIBrand    string   `json:"API_Brand"`
	APIRating   *float64 `json:"API_Rating"`
	APIMatch    bool     `json:"API_Match"`
}

// Column names recognized in transaction records
const (
	ColTransactionID = "TransactionID"
	ColDate          = "Date"
	ColProductID     = "ProductID"
	ColProductName   = "ProductName"
	ColQuantity      = "Quantity"
	ColUnitPrice     = "UnitPrice"
	ColCustomerID    = "CustomerID"
	ColRegion        = "Region"
)

// Columns lists the transaction columns in report order
var Columns = []string{
	ColTransactionID,
	ColDate,
	ColProductID,
	ColProductName,
	ColQuantity,
	ColUnitPrice,
	ColCustomerID,
	ColRegion,
}

// Set assigns a column by name; unknown columns are ignored.
func (t *Transaction) Set(column, value string) {
	switch column {
	case ColTransactionID:
		t.TransactionID = value
	case ColDate:
		t.Date = value
	case ColProductID:
		t.ProductID = value
	case ColProductName:
		t.ProductName = value
	case ColQuantity:
		t.Quantity = value
	case ColUnitPrice:
		t.UnitPrice = value
	case ColCustomerID:
		t.CustomerID = value
	case ColRegion:
		t.Region = value
	}
}

// Fields returns the column values in Columns order
func (t Transaction) Fields() []string {
	return []string{
		t.TransactionID,
		t.Date,
		t.ProductID,
		t.ProductName,
		t.Quantity,
		t.UnitPrice,
		t.CustomerID,
		t.Region,
	}
}

// TransactionFromRecord builds a Transaction from a loosely typed record,
// such as one element of a decoded JSON array.
func TransactionFromRecord(rec map[string]interface{}) Transaction {
	var t Transaction
	for _, col := range Columns {
		v, ok := rec[col]
		if !ok {
			continue
		}
		t.Set(col, Stringify(v))
	}
	return t
}

// Stringify renders a decoded JSON value the way the report expects:
// numbers in shortest form, booleans as True/False, null as None.
func Stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case fmt.Stringer:
		return x.String()
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}
