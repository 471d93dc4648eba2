package endpoint

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/spolu/distinct"
	"github.com/spolu/distinct/lib/errors"
	"github.com/spolu/distinct/lib/format"
	"github.com/spolu/distinct/lib/ptr"
	"github.com/spolu/distinct/lib/svc"
	"github.com/spolu/distinct/memory"
	"github.com/spolu/distinct/sqlstore"
	"golang.org/x/text/language"
)

const (
	// EndPtCheck checks a set of attribute values for uniqueness.
	EndPtCheck EndPtName = "Check"
)

func init() {
	registrar[EndPtCheck] = NewCheck
}

// IdentifierRegexp validates table, key and attribute names.
var IdentifierRegexp = regexp.MustCompile("^[a-zA-Z_][a-zA-Z0-9_]*$")

// Check runs a uniqueness check over the contextual DB for prospective
// attribute values.
type Check struct {
	Table      string
	Keys       []string
	Attributes []distinct.Attribute
	Values     []string
	Locale     language.Tag
}

// CheckResource is the check result returned to clients.
type CheckResource struct {
	Table  string                `json:"table"`
	Unique bool                  `json:"unique"`
	Errors []distinct.FieldError `json:"errors,omitempty"`
}

// NewCheck constructs and initializes the endpoint.
func NewCheck(
	r *http.Request,
) (Endpoint, error) {
	return &Check{}, nil
}

// Validate validates the input parameters.
func (e *Check) Validate(
	r *http.Request,
) error {
	if err := r.ParseForm(); err != nil {
		return errors.Trace(errors.NewUserErrorf(err,
			400, "form_invalid",
			"The request form could not be parsed.",
		))
	}

	table := r.PostFormValue("table")
	if !IdentifierRegexp.MatchString(table) {
		return errors.Trace(errors.NewUserErrorf(nil,
			400, "table_invalid",
			"The table name you provided is invalid: %s.",
			table,
		))
	}
	e.Table = table

	keys := r.PostForm["key"]
	if len(keys) == 0 {
		keys = []string{"id"}
	}
	for _, key := range keys {
		if !IdentifierRegexp.MatchString(key) {
			return errors.Trace(errors.NewUserErrorf(nil,
				400, "key_invalid",
				"The key column you provided is invalid: %s.",
				key,
			))
		}
	}
	e.Keys = keys

	attributes := r.PostForm["attribute"]
	values := r.PostForm["value"]
	if len(attributes) == 0 {
		return errors.Trace(errors.NewUserErrorf(nil,
			400, "attribute_missing",
			"You must provide at least one attribute to check.",
		))
	}
	if len(attributes) != len(values) {
		return errors.Trace(errors.NewUserErrorf(nil,
			400, "value_mismatch",
			"You provided %d attributes and %d values; the counts must "+
				"match.",
			len(attributes), len(values),
		))
	}
	for _, attribute := range attributes {
		// Attributes take the form `source` or `source:target`.
		source, target := attribute, ""
		if c := strings.SplitN(attribute, ":", 2); len(c) == 2 {
			source, target = c[0], c[1]
		}
		if !IdentifierRegexp.MatchString(source) ||
			(target != "" && !IdentifierRegexp.MatchString(target)) {
			return errors.Trace(errors.NewUserErrorf(nil,
				400, "attribute_invalid",
				"The attribute you provided is invalid: %s.",
				attribute,
			))
		}
		e.Attributes = append(e.Attributes, distinct.Attribute{
			Source: source,
			Target: target,
		})
	}
	e.Values = values

	e.Locale = language.English
	if header := r.Header.Get("Accept-Language"); header != "" {
		if tags, _, err := language.ParseAcceptLanguage(header); err == nil &&
			len(tags) > 0 {
			e.Locale = tags[0]
		}
	}

	return nil
}

// Execute executes the endpoint.
func (e *Check) Execute(
	ctx context.Context,
) (*int, *svc.Resp, error) {
	typ := distinct.NewType(e.Table, e.Keys...)

	fields := map[string]interface{}{}
	for i, attribute := range e.Attributes {
		fields[attribute.Source] = e.Values[i]
	}
	candidate := memory.NewRecord(typ, fields)

	checker := &distinct.Checker{
		Store:      sqlstore.New(),
		TargetType: typ,
		Attributes: e.Attributes,
		Locale:     e.Locale,
	}

	decision, err := checker.Check(ctx, candidate)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}

	return ptr.Int(http.StatusOK), &svc.Resp{
		"check": format.JSONPtr(CheckResource{
			Table:  e.Table,
			Unique: decision.Valid(),
			Errors: decision.Errors,
		}),
	}, nil
}
