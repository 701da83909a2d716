package application

import (
	"strconv"
	"strings"
)

// Conference fields a query may filter on.
const (
	FieldCity         = "city"
	FieldTopics       = "topics"
	FieldMonth        = "month"
	FieldMaxAttendees = "maxAttendees"
)

var queryFields = map[string]string{
	"CITY":          FieldCity,
	"TOPIC":         FieldTopics,
	"MONTH":         FieldMonth,
	"MAX_ATTENDEES": FieldMaxAttendees,
}

var queryOperators = map[string]string{
	"EQ":   "=",
	"GT":   ">",
	"GTEQ": ">=",
	"LT":   "<",
	"LTEQ": "<=",
	"NE":   "!=",
}

// QueryFilter is one filter as submitted by a client, for example
// {"CITY", "EQ", "London"}.
type QueryFilter struct {
	Field    string
	Operator string
	Value    string
}

// ConferenceFilter is a validated predicate on a conference field. Value is
// a string for city and topics and an int for month and maxAttendees.
type ConferenceFilter struct {
	Field    string
	Operator string
	Value    any
}

// ConferenceQuery is a validated conference query. When InequalityField is
// set results are ordered by it first and by name second; otherwise by name.
type ConferenceQuery struct {
	Filters         []ConferenceFilter
	InequalityField string
}

// BuildConferenceQuery validates and normalizes client filters. At most one
// distinct field may carry a non-equality operator.
func BuildConferenceQuery(filters []QueryFilter) (ConferenceQuery, error) {
	var query ConferenceQuery
	for _, f := range filters {
		field, fieldOK := queryFields[strings.ToUpper(strings.TrimSpace(f.Field))]
		operator, opOK := queryOperators[strings.ToUpper(strings.TrimSpace(f.Operator))]
		if !fieldOK || !opOK {
			return ConferenceQuery{}, badRequest("Filter contains invalid field or operator.")
		}

		var value any = f.Value
		if field == FieldMonth || field == FieldMaxAttendees {
			n, err := strconv.Atoi(strings.TrimSpace(f.Value))
			if err != nil {
				return ConferenceQuery{}, badRequest("Filter value for %s must be a number.", field)
			}
			value = n
		}

		if operator != "=" {
			if query.InequalityField != "" && query.InequalityField != field {
				return ConferenceQuery{}, badRequest("Inequality filter is allowed on only one field.")
			}
			query.InequalityField = field
		}

		query.Filters = append(query.Filters, ConferenceFilter{Field: field, Operator: operator, Value: value})
	}
	return query, nil
}

// playgroundQuery is the fixed demonstration query served by FilterPlayground.
func playgroundQuery() ConferenceQuery {
	return ConferenceQuery{Filters: []ConferenceFilter{
		{Field: FieldCity, Operator: "=", Value: "London"},
		{Field: FieldTopics, Operator: "=", Value: "Medical Innovations"},
		{Field: FieldMonth, Operator: "=", Value: 6},
	}}
}
