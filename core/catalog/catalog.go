// Package catalog - Remote product catalog
// Fetches products over HTTP and reduces them to the id-keyed lookup used for enrichment.
package catalog

import (
	"bytes"
	"encoding/json"
	"math"

	"sales-enrich/internal/errors"
)

// Product is one catalog entry as returned by the API.
// ID is nil when the field is absent, null or not an integral number; such products never enter a Mapping.
type Product struct {
	ID          *int    `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price,omitempty"`
	Rating      float64 `json:"rating"`
}

// PayloadKind classifies the top-level shape of a catalog response
type PayloadKind int

const (
	// PayloadObject - any JSON object without a products key (e.g. a single product)
	PayloadObject PayloadKind = iota
	// PayloadList - bare JSON array of products
	PayloadList
	// PayloadEnvelope - object carrying a products array
	PayloadEnvelope
)

// String returns string representation
func (k PayloadKind) String() string {
	switch k {
	case PayloadObject:
		return "object"
	case PayloadList:
		return "list"
	case PayloadEnvelope:
		return "envelope"
	default:
		return "unknown"
	}
}

// Payload is a decoded catalog response, already classified by shape.
type Payload struct {
	Kind PayloadKind

	// Products is set for PayloadList and PayloadEnvelope
	Products []Product

	// Total, Skip and Limit echo the envelope's paging fields when present
	Total int
	Skip  int
	Limit int

	// Raw is the response body as received
	Raw json.RawMessage
}

// Product decodes a PayloadObject as a single product (the by-id response).
func (p Payload) Product() (Product, error) {
	if p.Kind != PayloadObject {
		return Product{}, errors.Newf(errors.TypeValidation, "expected a single product, got %s payload", p.Kind)
	}
	var prod Product
	if err := json.Unmarshal(p.Raw, &prod); err != nil {
		return Product{}, errors.Wrap(errors.TypeValidation, "Invalid API product format", err)
	}
	return prod, nil
}

// DecodePayload classifies body as list, envelope or plain object.
// Scalars, malformed JSON and envelopes whose products value is not a list of objects are rejected.
func DecodePayload(body []byte) (Payload, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Payload{}, errors.Validation("Invalid API product format")
	}

	switch trimmed[0] {
	case '[':
		products, err := decodeProducts(trimmed)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Kind: PayloadList, Products: products, Raw: json.RawMessage(trimmed)}, nil

	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return Payload{}, errors.Wrap(errors.TypeValidation, "Invalid API product format", err)
		}

		rawProducts, ok := fields["products"]
		if !ok {
			return Payload{Kind: PayloadObject, Raw: json.RawMessage(trimmed)}, nil
		}

		rawProducts = bytes.TrimSpace(rawProducts)
		if len(rawProducts) == 0 || rawProducts[0] != '[' {
			return Payload{}, errors.Validation("Invalid API product format")
		}
		products, err := decodeProducts(rawProducts)
		if err != nil {
			return Payload{}, err
		}

		p := Payload{Kind: PayloadEnvelope, Products: products, Raw: json.RawMessage(trimmed)}
		p.Total = intField(fields, "total")
		p.Skip = intField(fields, "skip")
		p.Limit = intField(fields, "limit")
		return p, nil

	default:
		return Payload{}, errors.Validation("Invalid API product format")
	}
}

// intField reads an optional integer paging field; anything unparsable reads as 0.
func intField(fields map[string]json.RawMessage, key string) int {
	raw, ok := fields[key]
	if !ok {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0
	}
	return n
}

// decodeProducts decodes a JSON array one element at a time, so a badly typed
// field only affects its own product. Elements that are not objects are rejected.
func decodeProducts(raw []byte) ([]Product, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.Wrap(errors.TypeValidation, "Invalid API product format", err)
	}

	products := make([]Product, 0, len(items))
	for i, item := range items {
		var prod Product
		if err := prod.UnmarshalJSON(item); err != nil {
			return nil, errors.Wrap(errors.TypeValidation, "Invalid API product format", err).
				WithContext("index", i)
		}
		products = append(products, prod)
	}
	return products, nil
}

// UnmarshalJSON decodes a product field by field. A field holding the wrong
// JSON type reads as its zero value; only a non-object fails.
func (p *Product) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return errors.New(errors.TypeValidation, "product is not a JSON object")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*p = Product{
		ID:          idField(fields["id"]),
		Title:       stringField(fields["title"]),
		Description: stringField(fields["description"]),
		Category:    stringField(fields["category"]),
		Brand:       stringField(fields["brand"]),
		Price:       floatField(fields["price"]),
		Rating:      floatField(fields["rating"]),
	}
	return nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) > 0 && json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func floatField(raw json.RawMessage) float64 {
	var f float64
	if len(raw) > 0 && json.Unmarshal(raw, &f) != nil {
		return 0
	}
	return f
}

// idField accepts integers and integral floats (2.0 is id 2); strings, bools,
// fractions and out-of-range numbers yield nil.
func idField(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || (raw[0] != '-' && (raw[0] < '0' || raw[0] > '9')) {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		id := int(i)
		return &id
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return nil
	}
	id := int(f)
	return &id
}
