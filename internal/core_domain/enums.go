package core_domain

import "fmt"

// DocumentType is the business document type of a message.
type DocumentType string

const (
	DocTypeNotifyAggregatedMeasureData        DocumentType = "NotifyAggregatedMeasureData"
	DocTypeNotifyWholesaleServices            DocumentType = "NotifyWholesaleServices"
	DocTypeNotifyValidatedMeasureData         DocumentType = "NotifyValidatedMeasureData"
	DocTypeRejectRequestAggregatedMeasureData DocumentType = "RejectRequestAggregatedMeasureData"
	DocTypeRejectRequestWholesaleSettlement   DocumentType = "RejectRequestWholesaleSettlement"
	DocTypeRejectRequestMeasurements          DocumentType = "RejectRequestMeasurements"
	DocTypeReminderOfMissingMeasureData       DocumentType = "ReminderOfMissingMeasureData"
	DocTypeAcknowledgement                    DocumentType = "Acknowledgement"
)

var documentTypes = map[DocumentType]struct{}{
	DocTypeNotifyAggregatedMeasureData:        {},
	DocTypeNotifyWholesaleServices:            {},
	DocTypeNotifyValidatedMeasureData:         {},
	DocTypeRejectRequestAggregatedMeasureData: {},
	DocTypeRejectRequestWholesaleSettlement:   {},
	DocTypeRejectRequestMeasurements:          {},
	DocTypeReminderOfMissingMeasureData:       {},
	DocTypeAcknowledgement:                    {},
}

func (d DocumentType) Valid() bool {
	_, ok := documentTypes[d]
	return ok
}

func (d DocumentType) String() string { return string(d) }

// IsMeasurement reports whether the document carries measurement data. These
// documents live in the metering-point archive partition and can be held back
// from peek by feature flag.
func (d DocumentType) IsMeasurement() bool {
	switch d {
	case DocTypeNotifyValidatedMeasureData,
		DocTypeRejectRequestMeasurements,
		DocTypeReminderOfMissingMeasureData:
		return true
	}
	return false
}

func ParseDocumentType(s string) (DocumentType, error) {
	d := DocumentType(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown document type %q", s)
	}
	return d, nil
}

// BusinessReason is the business reason a document was produced for.
type BusinessReason string

const (
	ReasonBalanceFixing    BusinessReason = "BalanceFixing"
	ReasonWholesaleFixing  BusinessReason = "WholesaleFixing"
	ReasonCorrection       BusinessReason = "Correction"
	ReasonPeriodicMetering BusinessReason = "PeriodicMetering"
	ReasonMoveIn           BusinessReason = "MoveIn"
)

var businessReasons = map[BusinessReason]struct{}{
	ReasonBalanceFixing:    {},
	ReasonWholesaleFixing:  {},
	ReasonCorrection:       {},
	ReasonPeriodicMetering: {},
	ReasonMoveIn:           {},
}

func (b BusinessReason) Valid() bool {
	_, ok := businessReasons[b]
	return ok
}

func (b BusinessReason) String() string { return string(b) }

func ParseBusinessReason(s string) (BusinessReason, error) {
	b := BusinessReason(s)
	if !b.Valid() {
		return "", fmt.Errorf("unknown business reason %q", s)
	}
	return b, nil
}

// ProcessType identifies the market process a message belongs to. Delegations
// are scoped to a process type.
type ProcessType string

const (
	ProcessRequestEnergyResults     ProcessType = "RequestEnergyResults"
	ProcessReceiveEnergyResults     ProcessType = "ReceiveEnergyResults"
	ProcessRequestWholesaleResults  ProcessType = "RequestWholesaleResults"
	ProcessReceiveWholesaleResults  ProcessType = "ReceiveWholesaleResults"
	ProcessRequestMeteringPointData ProcessType = "RequestMeteringPointData"
	ProcessReceiveMeteringPointData ProcessType = "ReceiveMeteringPointData"
	ProcessSendMeteringPointData    ProcessType = "SendMeteringPointData"
)

var processTypes = map[ProcessType]struct{}{
	ProcessRequestEnergyResults:     {},
	ProcessReceiveEnergyResults:     {},
	ProcessRequestWholesaleResults:  {},
	ProcessReceiveWholesaleResults:  {},
	ProcessRequestMeteringPointData: {},
	ProcessReceiveMeteringPointData: {},
	ProcessSendMeteringPointData:    {},
}

func (p ProcessType) Valid() bool {
	_, ok := processTypes[p]
	return ok
}

func (p ProcessType) String() string { return string(p) }

func ParseProcessType(s string) (ProcessType, error) {
	p := ProcessType(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown process type %q", s)
	}
	return p, nil
}

// MessageCategory groups document types for peek.
type MessageCategory string

const (
	CategoryAggregations MessageCategory = "Aggregations"
	CategoryMeasureData  MessageCategory = "MeasureData"
)

func (c MessageCategory) Valid() bool {
	return c == CategoryAggregations || c == CategoryMeasureData
}

func (c MessageCategory) String() string { return string(c) }

// DocumentTypes returns the document types belonging to the category.
func (c MessageCategory) DocumentTypes() []DocumentType {
	switch c {
	case CategoryMeasureData:
		return []DocumentType{
			DocTypeNotifyValidatedMeasureData,
			DocTypeRejectRequestMeasurements,
			DocTypeReminderOfMissingMeasureData,
		}
	case CategoryAggregations:
		return []DocumentType{
			DocTypeNotifyAggregatedMeasureData,
			DocTypeNotifyWholesaleServices,
			DocTypeRejectRequestAggregatedMeasureData,
			DocTypeRejectRequestWholesaleSettlement,
			DocTypeAcknowledgement,
		}
	}
	return nil
}

func ParseMessageCategory(s string) (MessageCategory, error) {
	c := MessageCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown message category %q", s)
	}
	return c, nil
}

// DocumentFormat is the wire format a bundle is rendered into.
type DocumentFormat string

const (
	FormatCIMXml  DocumentFormat = "CimXml"
	FormatCIMJson DocumentFormat = "CimJson"
	FormatEbix    DocumentFormat = "Ebix"
)

func (f DocumentFormat) Valid() bool {
	switch f {
	case FormatCIMXml, FormatCIMJson, FormatEbix:
		return true
	}
	return false
}

func (f DocumentFormat) String() string { return string(f) }

func ParseDocumentFormat(s string) (DocumentFormat, error) {
	f := DocumentFormat(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown document format %q", s)
	}
	return f, nil
}
