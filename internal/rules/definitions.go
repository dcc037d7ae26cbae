// Package rules compiles offer validation sub-rules into stored comparison clauses,
// diffs them for the audit trail and evaluates them against offers.
package rules

// Model is the entity a clause inspects.
type Model string

const (
	ModelOffer                   Model = "OFFER"
	ModelCollectiveOffer         Model = "COLLECTIVE_OFFER"
	ModelCollectiveOfferTemplate Model = "COLLECTIVE_OFFER_TEMPLATE"
	ModelCollectiveStock         Model = "COLLECTIVE_STOCK"
	ModelVenue                   Model = "VENUE"
	ModelOfferer                 Model = "OFFERER"
)

// Attribute is the inspected column of a Model.
type Attribute string

const (
	AttributeName        Attribute = "NAME"
	AttributeDescription Attribute = "DESCRIPTION"
	AttributeMaxPrice    Attribute = "MAX_PRICE"
	AttributePrice       Attribute = "PRICE"
	AttributeID          Attribute = "ID"
	AttributeCategory    Attribute = "CATEGORY_ID"
	AttributeSubcategory Attribute = "SUBCATEGORY_ID"
	AttributeFormats     Attribute = "FORMATS"
)

// Operator compares an attribute with the comparated value.
type Operator string

const (
	OperatorGreaterThan          Operator = "GREATER_THAN"
	OperatorGreaterThanOrEqualTo Operator = "GREATER_THAN_OR_EQUAL_TO"
	OperatorLessThan             Operator = "LESS_THAN"
	OperatorLessThanOrEqualTo    Operator = "LESS_THAN_OR_EQUAL_TO"
	OperatorIn                   Operator = "IN"
	OperatorNotIn                Operator = "NOT_IN"
	OperatorContains             Operator = "CONTAINS"
	OperatorContainsExactly      Operator = "CONTAINS_EXACTLY"
	OperatorIntersects           Operator = "INTERSECTS"
	OperatorNotIntersects        Operator = "NOT_INTERSECTS"
)

// ValueField names the form field holding the comparated value of a sub-rule type.
type ValueField string

const (
	FieldDecimal       ValueField = "decimal_field"
	FieldList          ValueField = "list_field"
	FieldOfferers      ValueField = "offerer"
	FieldVenues        ValueField = "venue"
	FieldCategories    ValueField = "category_list"
	FieldSubcategories ValueField = "subcategories"
	FieldFormats       ValueField = "formats"
)

// SubRuleType is what the reviewer picks in the rule form.
type SubRuleType string

const (
	TypePriceOffer                         SubRuleType = "PRICE_OFFER"
	TypePriceCollectiveStock               SubRuleType = "PRICE_COLLECTIVE_STOCK"
	TypeNameOffer                          SubRuleType = "NAME_OFFER"
	TypeNameCollectiveOffer                SubRuleType = "NAME_COLLECTIVE_OFFER"
	TypeNameCollectiveOfferTemplate        SubRuleType = "NAME_COLLECTIVE_OFFER_TEMPLATE"
	TypeDescriptionOffer                   SubRuleType = "DESCRIPTION_OFFER"
	TypeDescriptionCollectiveOffer         SubRuleType = "DESCRIPTION_COLLECTIVE_OFFER"
	TypeDescriptionCollectiveOfferTemplate SubRuleType = "DESCRIPTION_COLLECTIVE_OFFER_TEMPLATE"
	TypeIDVenue                            SubRuleType = "ID_VENUE"
	TypeIDOfferer                          SubRuleType = "ID_OFFERER"
	TypeCategoryOffer                      SubRuleType = "CATEGORY_OFFER"
	TypeSubcategoryOffer                   SubRuleType = "SUBCATEGORY_OFFER"
	TypeFormatsCollectiveOffer             SubRuleType = "FORMATS_COLLECTIVE_OFFER"
)

// Definition binds a sub-rule type to its clause shape and authoritative field.
type Definition struct {
	Model     Model
	Attribute Attribute
	Operators []Operator
	Field     ValueField
}

// Allows reports whether op belongs to the definition's operator set.
func (d Definition) Allows(op Operator) bool {
	for _, allowed := range d.Operators {
		if allowed == op {
			return true
		}
	}
	return false
}

var (
	numericOperators = []Operator{OperatorGreaterThan, OperatorGreaterThanOrEqualTo, OperatorLessThan, OperatorLessThanOrEqualTo}
	textOperators    = []Operator{OperatorContains, OperatorContainsExactly}
	setOperators     = []Operator{OperatorIn, OperatorNotIn}
	listOperators    = []Operator{OperatorIntersects, OperatorNotIntersects}
)

var definitions = map[SubRuleType]Definition{
	TypePriceOffer:                         {ModelOffer, AttributeMaxPrice, numericOperators, FieldDecimal},
	TypePriceCollectiveStock:               {ModelCollectiveStock, AttributePrice, numericOperators, FieldDecimal},
	TypeNameOffer:                          {ModelOffer, AttributeName, textOperators, FieldList},
	TypeNameCollectiveOffer:                {ModelCollectiveOffer, AttributeName, textOperators, FieldList},
	TypeNameCollectiveOfferTemplate:        {ModelCollectiveOfferTemplate, AttributeName, textOperators, FieldList},
	TypeDescriptionOffer:                   {ModelOffer, AttributeDescription, textOperators, FieldList},
	TypeDescriptionCollectiveOffer:         {ModelCollectiveOffer, AttributeDescription, textOperators, FieldList},
	TypeDescriptionCollectiveOfferTemplate: {ModelCollectiveOfferTemplate, AttributeDescription, textOperators, FieldList},
	TypeIDVenue:                            {ModelVenue, AttributeID, setOperators, FieldVenues},
	TypeIDOfferer:                          {ModelOfferer, AttributeID, setOperators, FieldOfferers},
	TypeCategoryOffer:                      {ModelOffer, AttributeCategory, setOperators, FieldCategories},
	TypeSubcategoryOffer:                   {ModelOffer, AttributeSubcategory, setOperators, FieldSubcategories},
	TypeFormatsCollectiveOffer:             {ModelCollectiveOffer, AttributeFormats, listOperators, FieldFormats},
}

// Lookup returns the definition of a sub-rule type.
func Lookup(t SubRuleType) (Definition, bool) {
	def, ok := definitions[t]
	return def, ok
}

// TypeOf resolves the sub-rule type a stored (model, attribute) pair was created from.
func TypeOf(model Model, attribute Attribute) (SubRuleType, bool) {
	for t, def := range definitions {
		if def.Model == model && def.Attribute == attribute {
			return t, true
		}
	}
	return "", false
}
