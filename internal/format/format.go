// Package format maps enum values to the French labels shown in the backoffice.
// Every function is total: unknown values degrade to their raw form.
package format

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backoffice-api/internal/models"
	"github.com/noah-isme/backoffice-api/internal/rules"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	logger.Store(&nop)
}

// SetLogger installs the logger receiving unmapped-value anomalies.
func SetLogger(l zerolog.Logger) {
	scoped := l.With().Str("component", "format").Logger()
	logger.Store(&scoped)
}

func anomaly(kind string, value string) {
	logger.Load().Error().Str("kind", kind).Str("value", value).Msg("no display label for value")
}

// Badge is a label paired with a display variant.
type Badge struct {
	Label   string `json:"label"`
	Variant string `json:"variant"`
}

var bookingStatuses = map[models.BookingStatus]Badge{
	models.BookingStatusConfirmed:  {"Réservée", "secondary"},
	models.BookingStatusUsed:       {"Validée", "success"},
	models.BookingStatusCancelled:  {"Annulée", "danger"},
	models.BookingStatusReimbursed: {"Remboursée", "primary"},
}

// BookingStatus labels a booking status.
func BookingStatus(status models.BookingStatus) Badge {
	if badge, ok := bookingStatuses[status]; ok {
		return badge
	}
	anomaly("booking_status", string(status))
	return Badge{Label: string(status), Variant: "secondary"}
}

var validationStatuses = map[models.ValidationStatus]Badge{
	models.ValidationStatusNew:       {"Nouvelle", "info"},
	models.ValidationStatusPending:   {"En attente", "warning"},
	models.ValidationStatusValidated: {"Validée", "success"},
	models.ValidationStatusRejected:  {"Rejetée", "danger"},
	models.ValidationStatusClosed:    {"Fermée", "dark"},
}

// ValidationStatus labels an offerer review status.
func ValidationStatus(status models.ValidationStatus) Badge {
	if badge, ok := validationStatuses[status]; ok {
		return badge
	}
	anomaly("validation_status", string(status))
	return Badge{Label: string(status), Variant: "secondary"}
}

// OffererRejectionReason labels a rejection reason. Unmapped reasons fall back to
// the raw value without logging.
func OffererRejectionReason(reason models.OffererRejectionReason) string {
	switch reason {
	case models.RejectionReasonEligibility:
		return "Non éligible"
	case models.RejectionReasonError:
		return "Erreur jeune ou acteur culturel"
	case models.RejectionReasonAdageDeclined:
		return "Refusé sur ADAGE"
	case models.RejectionReasonOutOfTime:
		return "Non réponse aux questionnaires"
	case models.RejectionReasonClosedBusiness:
		return "Établissement fermé"
	case models.RejectionReasonOther:
		return "Autre"
	default:
		return string(reason)
	}
}

var actionTypes = map[models.ActionType]string{
	models.ActionOffererValidated:         "Validation de l'entité juridique",
	models.ActionOffererRejected:          "Rejet de l'entité juridique",
	models.ActionOffererPending:           "Mise en attente de l'entité juridique",
	models.ActionOffererSuspended:         "Entité juridique désactivée",
	models.ActionOffererUnsuspended:       "Entité juridique réactivée",
	models.ActionUserSuspended:            "Compte suspendu",
	models.ActionUserUnsuspended:          "Compte réactivé",
	models.ActionInfoModified:             "Modification des informations",
	models.ActionBookingCancelled:         "Réservation annulée",
	models.ActionFinanceIncidentCreated:   "Création de l'incident",
	models.ActionFinanceIncidentValidated: "Incident validé",
	models.ActionFinanceIncidentCancelled: "Incident annulé",
	models.ActionCustomReimbursementRule:  "Création d'un tarif dérogatoire",
	models.ActionCustomReimbursementEdit:  "Modification d'un tarif dérogatoire",
	models.ActionRuleCreated:              "Création d'une règle de conformité",
	models.ActionRuleModified:             "Modification d'une règle de conformité",
	models.ActionRuleDeleted:              "Suppression d'une règle de conformité",
	models.ActionProviderCreated:          "Création d'un fournisseur",
	models.ActionProviderModified:         "Modification d'un fournisseur",
	models.ActionInvoiceGenerationQueued:  "Génération des justificatifs lancée",
}

// ActionType labels an audit action. A missing label is logged.
func ActionType(action models.ActionType) string {
	if label, ok := actionTypes[action]; ok {
		return label
	}
	anomaly("action_type", string(action))
	return string(action)
}

var incidentStatuses = map[models.IncidentStatus]Badge{
	models.IncidentStatusCreated:   {"Créé", "secondary"},
	models.IncidentStatusValidated: {"Validé", "success"},
	models.IncidentStatusCancelled: {"Annulé", "danger"},
}

// IncidentStatus labels a finance incident status.
func IncidentStatus(status models.IncidentStatus) Badge {
	if badge, ok := incidentStatuses[status]; ok {
		return badge
	}
	anomaly("incident_status", string(status))
	return Badge{Label: string(status), Variant: "secondary"}
}

// IncidentKind labels a finance incident kind.
func IncidentKind(kind models.IncidentKind) string {
	switch kind {
	case models.IncidentKindOverpayment:
		return "Trop perçu"
	case models.IncidentKindCommercialGesture:
		return "Geste commercial"
	default:
		anomaly("incident_kind", string(kind))
		return string(kind)
	}
}

// SuspensionReason labels an account suspension reason.
func SuspensionReason(reason models.SuspensionReason) string {
	switch reason {
	case models.SuspensionReasonFraudSuspicion:
		return "Fraude suspectée"
	case models.SuspensionReasonFraudUsurpation:
		return "Fraude usurpation"
	case models.SuspensionReasonEndOfContract:
		return "Fin de contrat"
	case models.SuspensionReasonUponUserRequest:
		return "Demande de l'utilisateur"
	case models.SuspensionReasonDeleted:
		return "Supprimé"
	default:
		return string(reason)
	}
}

// CancellationReason labels a booking cancellation reason.
func CancellationReason(reason models.BookingCancellationReason) string {
	switch reason {
	case models.CancellationReasonBackoffice:
		return "Annulée depuis le backoffice"
	case models.CancellationReasonBeneficiary:
		return "Annulée par le bénéficiaire"
	case models.CancellationReasonOfferer:
		return "Annulée par l'acteur culturel"
	case models.CancellationReasonFraud:
		return "Fraude"
	case models.CancellationReasonExpired:
		return "Expirée"
	default:
		return string(reason)
	}
}

var subRuleTypes = map[rules.SubRuleType]string{
	rules.TypePriceOffer:                         "Prix de l'offre individuelle",
	rules.TypePriceCollectiveStock:               "Prix de l'offre collective",
	rules.TypeNameOffer:                          "Nom de l'offre individuelle",
	rules.TypeNameCollectiveOffer:                "Nom de l'offre collective",
	rules.TypeNameCollectiveOfferTemplate:        "Nom de l'offre collective vitrine",
	rules.TypeDescriptionOffer:                   "Description de l'offre individuelle",
	rules.TypeDescriptionCollectiveOffer:         "Description de l'offre collective",
	rules.TypeDescriptionCollectiveOfferTemplate: "Description de l'offre collective vitrine",
	rules.TypeIDVenue:                            "Partenaire culturel",
	rules.TypeIDOfferer:                          "Entité juridique",
	rules.TypeCategoryOffer:                      "Catégorie de l'offre",
	rules.TypeSubcategoryOffer:                   "Sous-catégorie de l'offre",
	rules.TypeFormatsCollectiveOffer:             "Formats de l'offre collective",
}

// SubRuleType labels a sub-rule type.
func SubRuleType(t rules.SubRuleType) string {
	if label, ok := subRuleTypes[t]; ok {
		return label
	}
	anomaly("sub_rule_type", string(t))
	return string(t)
}

var operators = map[rules.Operator]string{
	rules.OperatorGreaterThan:          "est supérieur à",
	rules.OperatorGreaterThanOrEqualTo: "est supérieur ou égal à",
	rules.OperatorLessThan:             "est inférieur à",
	rules.OperatorLessThanOrEqualTo:    "est inférieur ou égal à",
	rules.OperatorIn:                   "est parmi",
	rules.OperatorNotIn:                "n'est pas parmi",
	rules.OperatorContains:             "contient",
	rules.OperatorContainsExactly:      "contient exactement",
	rules.OperatorIntersects:           "contient l'un des éléments",
	rules.OperatorNotIntersects:        "ne contient aucun des éléments",
}

// Operator labels a sub-rule operator.
func Operator(op rules.Operator) string {
	if label, ok := operators[op]; ok {
		return label
	}
	anomaly("operator", string(op))
	return string(op)
}

// Amount renders cents as a French euro amount, e.g. "1 234,50 €".
func Amount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	units := fmt.Sprintf("%d", cents/100)
	var grouped strings.Builder
	for i, digit := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			grouped.WriteRune(' ')
		}
		grouped.WriteRune(digit)
	}
	return fmt.Sprintf("%s%s,%02d €", sign, grouped.String(), cents%100)
}
