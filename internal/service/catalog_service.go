package service

import "github.com/prestamax/loan-review-api/internal/models"

// CatalogEntry pairs an enum value with its display label.
type CatalogEntry struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Catalog bundles every closed enum the review UI renders, so clients
// never hardcode enum values.
type Catalog struct {
	ApplicationStatuses []CatalogEntry `json:"application_statuses"`
	VerificationFields  []CatalogEntry `json:"verification_fields"`
	DocumentTypes       []CatalogEntry `json:"document_types"`
	RejectionReasons    []CatalogEntry `json:"rejection_reasons"`
	ReferenceOutcomes   []CatalogEntry `json:"reference_outcomes"`
	PaymentFrequencies  []CatalogEntry `json:"payment_frequencies"`
}

var statusLabels = map[models.ApplicationStatus]string{
	models.StatusDraft:              "Borrador",
	models.StatusSubmitted:          "Enviada",
	models.StatusInReview:           "En revisión",
	models.StatusDocsPending:        "Documentos pendientes",
	models.StatusCorrectionsPending: "Correcciones pendientes",
	models.StatusCounterOffered:     "Contraoferta",
	models.StatusApproved:           "Aprobada",
	models.StatusRejected:           "Rechazada",
	models.StatusCancelled:          "Cancelada",
	models.StatusDisbursed:          "Dispersada",
}

var fieldLabels = map[models.VerificationField]string{
	models.FieldFirstName:  "Nombre",
	models.FieldLastName1:  "Apellido paterno",
	models.FieldLastName2:  "Apellido materno",
	models.FieldCURP:       "CURP",
	models.FieldRFC:        "RFC",
	models.FieldINEClave:   "Clave de elector",
	models.FieldBirthDate:  "Fecha de nacimiento",
	models.FieldPhone:      "Teléfono",
	models.FieldEmail:      "Correo electrónico",
	models.FieldAddress:    "Domicilio",
	models.FieldEmployment: "Empleo",
	models.FieldFaceMatch:  "Comparación facial",
	models.FieldLiveness:   "Prueba de vida",
}

var documentTypeLabels = map[models.DocumentType]string{
	models.DocINEFront:       "INE frente",
	models.DocINEBack:        "INE reverso",
	models.DocProofOfAddress: "Comprobante de domicilio",
	models.DocProofOfIncome:  "Comprobante de ingresos",
	models.DocBankStatement:  "Estado de cuenta",
	models.DocSelfie:         "Selfie",
	models.DocSignature:      "Firma",
	models.DocOther:          "Otro",
}

var rejectionReasonLabels = map[models.DocumentRejectionReason]string{
	models.RejectIllegible:  "Ilegible",
	models.RejectExpired:    "Vencido",
	models.RejectIncomplete: "Incompleto",
	models.RejectWrongDoc:   "Documento equivocado",
	models.RejectMismatch:   "No coincide con la solicitud",
	models.RejectLowQuality: "Baja calidad",
	models.RejectOutdated:   "Desactualizado",
	models.RejectOther:      "Otro",
}

var referenceOutcomeLabels = map[models.ReferenceOutcome]string{
	models.ReferencePending:     "Pendiente",
	models.ReferenceVerified:    "Verificada",
	models.ReferenceNotVerified: "No verificada",
	models.ReferenceNoAnswer:    "Sin respuesta",
}

var frequencyLabels = map[models.PaymentFrequency]string{
	models.FrequencyMonthly:  "Mensual",
	models.FrequencyBiweekly: "Quincenal",
}

// CatalogService serves the static enum catalog.
type CatalogService struct {
	catalog Catalog
}

// NewCatalogService precomputes the catalog once.
func NewCatalogService() *CatalogService {
	c := Catalog{}
	for _, s := range models.AllApplicationStatuses() {
		c.ApplicationStatuses = append(c.ApplicationStatuses, CatalogEntry{Value: string(s), Label: statusLabels[s]})
	}
	for _, f := range models.AllVerificationFields() {
		c.VerificationFields = append(c.VerificationFields, CatalogEntry{Value: string(f), Label: fieldLabels[f]})
	}
	for _, t := range models.AllDocumentTypes() {
		c.DocumentTypes = append(c.DocumentTypes, CatalogEntry{Value: string(t), Label: documentTypeLabels[t]})
	}
	for _, r := range models.AllDocumentRejectionReasons() {
		c.RejectionReasons = append(c.RejectionReasons, CatalogEntry{Value: string(r), Label: rejectionReasonLabels[r]})
	}
	for _, o := range []models.ReferenceOutcome{
		models.ReferencePending, models.ReferenceVerified,
		models.ReferenceNotVerified, models.ReferenceNoAnswer,
	} {
		c.ReferenceOutcomes = append(c.ReferenceOutcomes, CatalogEntry{Value: string(o), Label: referenceOutcomeLabels[o]})
	}
	for _, f := range []models.PaymentFrequency{models.FrequencyMonthly, models.FrequencyBiweekly} {
		c.PaymentFrequencies = append(c.PaymentFrequencies, CatalogEntry{Value: string(f), Label: frequencyLabels[f]})
	}
	return &CatalogService{catalog: c}
}

// Catalog returns the precomputed enum catalog.
func (s *CatalogService) Catalog() Catalog {
	return s.catalog
}
