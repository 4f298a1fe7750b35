package reconcile

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
)

// CancellationIDPrefix marks engine-issued cancellation tokens.
const CancellationIDPrefix = "CNCL-"

// CanonicalOrder is the reconciled, user-visible view of one logical order.
// It is derived, never stored: re-running reconciliation over unchanged
// inputs yields an identical value.
type CanonicalOrder struct {
	BusinessOrderCode      string                   `json:"business_order_code"`
	RepresentativeRecordID uuid.UUID                `json:"representative_record_id"`
	MemberRecordIDs        []uuid.UUID              `json:"member_record_ids"`
	Kind                   enums.RecordKind         `json:"kind"`
	Source                 enums.RecordSource       `json:"source"`
	CustomerName           string                   `json:"customer_name"`
	CustomerEmail          string                   `json:"customer_email"`
	CustomerPhone          string                   `json:"customer_phone"`
	CustomerAddress        string                   `json:"customer_address"`
	CustomerPincode        string                   `json:"customer_pincode"`
	ProductID              *string                  `json:"product_id,omitempty"`
	ProductDescription     string                   `json:"product_description"`
	VendorName             string                   `json:"vendor_name"`
	CollectionName         string                   `json:"collection_name"`
	Quantity               int                      `json:"quantity"`
	Price                  decimal.Decimal          `json:"price"`
	OriginalPrice          decimal.Decimal          `json:"original_price"`
	DiscountPercentage     decimal.Decimal          `json:"discount_percentage"`
	DiscountAmount         decimal.Decimal          `json:"discount_amount"`
	PaymentStatus          enums.PaymentStatus      `json:"payment_status"`
	PaymentMethod          enums.PaymentMethod      `json:"payment_method"`
	DeliveryStatus         *string                  `json:"delivery_status,omitempty"`
	TrackingNumber         *string                  `json:"tracking_number,omitempty"`
	CancellationID         string                   `json:"cancellation_id"`
	CancellationStatus     enums.CancellationStatus `json:"cancellation_status"`
	CancellationReason     *string                  `json:"cancellation_reason,omitempty"`
	RefundAmount           *decimal.Decimal         `json:"refund_amount,omitempty"`
	RefundReason           *string                  `json:"refund_reason,omitempty"`
	RefundStatus           enums.RefundStatus       `json:"refund_status"`
	CancellationFee        *decimal.Decimal         `json:"cancellation_fee,omitempty"`
	Converted              bool                     `json:"converted"`
}

// ApplyOverride layers a partial JSON patch onto a raw record, producing the
// effective record. The original is not modified.
func ApplyOverride(record models.OrderRecord, patch json.RawMessage) (models.OrderRecord, error) {
	if len(patch) == 0 {
		return record, nil
	}

	base, err := recordToMap(record)
	if err != nil {
		return record, err
	}

	var overlay map[string]any
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return record, fmt.Errorf("decoding override patch: %w", err)
	}
	for k, v := range overlay {
		base[k] = v
	}

	return mapToRecord(base)
}

// Reconcile folds raw orders, raw leads, and override patches into one
// canonical order per business order code. It is pure: no clocks, no
// randomness, no side effects. Records without a business order code are
// dropped and reported through the returned error (multierr), never fatally.
func Reconcile(orders, leads []models.OrderRecord, overrides map[uuid.UUID]json.RawMessage) ([]CanonicalOrder, error) {
	var dropped error

	all := make([]models.OrderRecord, 0, len(orders)+len(leads))
	all = append(all, orders...)
	all = append(all, leads...)

	groups := make(map[string][]models.OrderRecord)
	for _, raw := range all {
		effective, err := ApplyOverride(raw, overrides[raw.ID])
		if err != nil {
			dropped = multierr.Append(dropped, fmt.Errorf("record %s: %w", raw.ID, err))
			continue
		}
		code := strings.TrimSpace(effective.BusinessOrderCode)
		if code == "" {
			dropped = multierr.Append(dropped, fmt.Errorf("record %s: missing business order code", raw.ID))
			continue
		}
		groups[code] = append(groups[code], effective)
	}

	out := make([]CanonicalOrder, 0, len(groups))
	for code, members := range groups {
		out = append(out, foldGroup(code, members))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].BusinessOrderCode < out[j].BusinessOrderCode
	})
	return out, dropped
}

// foldGroup merges a non-empty group left to right, fields present in later
// records winning, then applies status precedence and cancellation id rules.
func foldGroup(code string, members []models.OrderRecord) CanonicalOrder {
	sort.Slice(members, func(i, j int) bool {
		return members[i].ID.String() < members[j].ID.String()
	})

	merged := map[string]any{}
	memberIDs := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
		fields, err := recordToMap(member)
		if err != nil {
			continue
		}
		for k, v := range fields {
			merged[k] = v
		}
	}

	representative, err := mapToRecord(merged)
	if err != nil {
		representative = members[len(members)-1]
	}

	canonical := CanonicalOrder{
		BusinessOrderCode:      code,
		RepresentativeRecordID: members[len(members)-1].ID,
		MemberRecordIDs:        memberIDs,
		Kind:                   representative.Kind,
		Source:                 representative.Source,
		CustomerName:           representative.CustomerName,
		CustomerEmail:          representative.CustomerEmail,
		CustomerPhone:          representative.CustomerPhone,
		CustomerAddress:        representative.CustomerAddress,
		CustomerPincode:        representative.CustomerPincode,
		ProductID:              representative.ProductID,
		ProductDescription:     representative.ProductDescription,
		VendorName:             representative.VendorName,
		CollectionName:         representative.CollectionName,
		Quantity:               representative.Quantity,
		Price:                  representative.Price,
		OriginalPrice:          representative.OriginalPrice,
		DiscountPercentage:     representative.DiscountPercentage,
		DiscountAmount:         representative.DiscountAmount,
		PaymentStatus:          resolveStatus(representative.PaymentStatus, members),
		PaymentMethod:          representative.PaymentMethod,
		DeliveryStatus:         representative.DeliveryStatus,
		TrackingNumber:         representative.TrackingNumber,
		CancellationID:         resolveCancellationID(code, members),
		CancellationStatus:     representative.CancellationStatus,
		CancellationReason:     representative.CancellationReason,
		RefundAmount:           representative.RefundAmount,
		RefundReason:           representative.RefundReason,
		RefundStatus:           representative.RefundStatus,
		CancellationFee:        representative.CancellationFee,
		Converted:              groupConverted(members),
	}
	return canonical
}

// resolveStatus picks the single authoritative status for a group. The
// precedence is fixed and independent of fold order: Voided beats Refunded
// beats Fee Charged beats Paid beats whatever the representative carries.
func resolveStatus(representative enums.PaymentStatus, members []models.OrderRecord) enums.PaymentStatus {
	best := representative
	bestRank := 0
	consider := func(status enums.PaymentStatus) {
		if rank := status.PrecedenceRank(); rank > bestRank {
			best = status
			bestRank = rank
		}
	}
	for _, member := range members {
		consider(member.PaymentStatus)
		if member.CancellationStatus == enums.CancellationStatusProcessed {
			consider(enums.PaymentStatusVoided)
		}
		if member.RefundStatus == enums.RefundStatusProcessed {
			consider(enums.PaymentStatusRefunded)
		}
	}
	return best
}

// resolveCancellationID adopts the first non-empty member id so the whole
// group shares one token; otherwise it derives a stable one from the code.
func resolveCancellationID(code string, members []models.OrderRecord) string {
	for _, member := range members {
		if member.CancellationID != nil && strings.TrimSpace(*member.CancellationID) != "" {
			return strings.TrimSpace(*member.CancellationID)
		}
	}
	return SynthesizeCancellationID(code)
}

// SynthesizeCancellationID derives the group's cancellation token from the
// business order code. Repeated reconciliation of unchanged inputs always
// yields the same id.
func SynthesizeCancellationID(code string) string {
	sum := sha256.Sum256([]byte(code))
	return CancellationIDPrefix + strings.ToUpper(fmt.Sprintf("%x", sum[:4]))
}

func groupConverted(members []models.OrderRecord) bool {
	for _, member := range members {
		if member.Converted || member.Kind == enums.RecordKindOrder {
			return true
		}
	}
	return false
}

func recordToMap(record models.OrderRecord) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decoding record fields: %w", err)
	}
	return fields, nil
}

func mapToRecord(fields map[string]any) (models.OrderRecord, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return models.OrderRecord{}, fmt.Errorf("encoding merged fields: %w", err)
	}
	var record models.OrderRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return models.OrderRecord{}, fmt.Errorf("decoding merged record: %w", err)
	}
	return record, nil
}
