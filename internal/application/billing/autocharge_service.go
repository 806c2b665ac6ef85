package billing

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hims/backend/internal/domain/billing"
	"github.com/hims/backend/internal/domain/billing/acl"
	"github.com/hims/backend/internal/domain/shared"
)

// Billable units for bed stay segments. Mixed bills short segments by
// the hour and everything else by the day.
const (
	BedChargeModeDaily  = "daily"
	BedChargeModeHourly = "hourly"
	BedChargeModeMixed  = "mixed"
)

// AutoChargeService raises invoice items from clinical source records:
// bed occupancy from the ADT context and completed OT cases. Runs are
// idempotent. A source record whose reference is already billed on a
// non-voided item is never duplicated: with skip_if_already_billed set
// it is skipped and reported, otherwise the conflict fails the run.
type AutoChargeService struct {
	scope         TransactionScope
	priceResolver acl.PriceResolver
	bedStaySource acl.BedStayUsageSource
	otCaseSource  acl.OTCaseSource
	logger        *zap.Logger
}

// NewAutoChargeService creates a new AutoChargeService
func NewAutoChargeService(
	scope TransactionScope,
	priceResolver acl.PriceResolver,
	bedStaySource acl.BedStayUsageSource,
	otCaseSource acl.OTCaseSource,
	logger *zap.Logger,
) *AutoChargeService {
	return &AutoChargeService{
		scope:         scope,
		priceResolver: priceResolver,
		bedStaySource: bedStaySource,
		otCaseSource:  otCaseSource,
		logger:        logger,
	}
}

// SyncBedCharges bills the bed stay segments of an admission onto the
// given draft invoice. Each segment becomes one line item priced from
// the bed's service code, with the day or hour count as quantity
// depending on the requested mode.
func (s *AutoChargeService) SyncBedCharges(ctx context.Context, req SyncBedChargesRequest) (*AutoChargeResultResponse, error) {
	segments, err := s.bedStaySource.GetStaySegments(ctx, req.AdmissionID)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = BedChargeModeDaily
	}
	upto := time.Now()
	if req.UptoTS != nil {
		upto = *req.UptoTS
	}

	var result AutoChargeResultResponse

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		charged := make([]InvoiceItemResponse, 0, len(segments))
		skipped := make([]SkippedChargeResponse, 0)

		for _, segment := range segments {
			if segment.StartedAt.After(upto) {
				continue
			}
			ref := billing.ServiceRef{ServiceType: "bed_stay", ServiceRefID: segment.SegmentID}

			billed, err := s.alreadyBilled(ctx, repos, invoice, ref)
			if err != nil {
				return err
			}
			if billed {
				if !req.SkipIfAlreadyBilled {
					return shared.NewDomainError("SERVICE_ALREADY_BILLED",
						fmt.Sprintf("Bed stay segment %s is already billed", segment.SegmentID))
				}
				s.logger.Info("bed stay segment already billed, skipping",
					zap.String("admission_id", req.AdmissionID.String()),
					zap.String("segment_id", segment.SegmentID.String()),
					zap.String("invoice_id", invoice.ID.String()))
				skipped = append(skipped, SkippedChargeResponse{
					ServiceType:  ref.ServiceType,
					ServiceRefID: ref.ServiceRefID,
					Reason:       "already billed",
				})
				continue
			}

			price, err := s.priceResolver.ResolvePrice(ctx, segment.BedServiceCode)
			if err != nil {
				return err
			}

			description := fmt.Sprintf("Bed charges - %s (%s)", segment.WardName, segment.BedNumber)
			item, err := invoice.AddServiceItem(ref, description, bedChargeUnits(segment, mode, upto), price.UnitPrice, price.TaxRate)
			if err != nil {
				return err
			}
			charged = append(charged, ToInvoiceItemResponse(item))
		}

		if len(charged) > 0 {
			if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
				return err
			}
		}

		result = AutoChargeResultResponse{
			Invoice:      ToInvoiceResponse(invoice),
			ChargedItems: charged,
			SkippedRefs:  skipped,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bed charge sync completed",
		zap.String("admission_id", req.AdmissionID.String()),
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.Int("charged", len(result.ChargedItems)),
		zap.Int("skipped", len(result.SkippedRefs)))

	return &result, nil
}

// SyncOTCharges bills the procedures of a completed OT case onto the
// given draft invoice, one line item per performed procedure.
func (s *AutoChargeService) SyncOTCharges(ctx context.Context, req SyncOTChargesRequest) (*AutoChargeResultResponse, error) {
	otCase, err := s.otCaseSource.GetCase(ctx, req.CaseID)
	if err != nil {
		return nil, err
	}

	var result AutoChargeResultResponse

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		charged := make([]InvoiceItemResponse, 0, len(otCase.Procedures))
		skipped := make([]SkippedChargeResponse, 0)

		for _, procedure := range otCase.Procedures {
			ref := billing.ServiceRef{ServiceType: "ot_procedure", ServiceRefID: procedure.ProcedureID}

			billed, err := s.alreadyBilled(ctx, repos, invoice, ref)
			if err != nil {
				return err
			}
			if billed {
				if !req.SkipIfAlreadyBilled {
					return shared.NewDomainError("SERVICE_ALREADY_BILLED",
						fmt.Sprintf("OT procedure %s is already billed", procedure.ProcedureID))
				}
				s.logger.Info("ot procedure already billed, skipping",
					zap.String("case_id", req.CaseID.String()),
					zap.String("procedure_id", procedure.ProcedureID.String()),
					zap.String("invoice_id", invoice.ID.String()))
				skipped = append(skipped, SkippedChargeResponse{
					ServiceType:  ref.ServiceType,
					ServiceRefID: ref.ServiceRefID,
					Reason:       "already billed",
				})
				continue
			}

			price, err := s.priceResolver.ResolvePrice(ctx, procedure.ServiceCode)
			if err != nil {
				return err
			}

			quantity := procedure.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			description := fmt.Sprintf("OT charges - %s", procedure.Name)
			item, err := invoice.AddServiceItem(ref, description, quantity, price.UnitPrice, price.TaxRate)
			if err != nil {
				return err
			}
			charged = append(charged, ToInvoiceItemResponse(item))
		}

		if len(charged) > 0 {
			if err := repos.InvoiceRepo().SaveWithLock(ctx, invoice); err != nil {
				return err
			}
		}

		result = AutoChargeResultResponse{
			Invoice:      ToInvoiceResponse(invoice),
			ChargedItems: charged,
			SkippedRefs:  skipped,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ot charge sync completed",
		zap.String("case_id", req.CaseID.String()),
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.Int("charged", len(result.ChargedItems)),
		zap.Int("skipped", len(result.SkippedRefs)))

	return &result, nil
}

// bedChargeUnits converts a stay segment into its billable quantity for
// the requested mode, counting usage up to upto
func bedChargeUnits(segment acl.BedStaySegment, mode string, upto time.Time) int64 {
	switch mode {
	case BedChargeModeHourly:
		return segment.Hours(upto)
	case BedChargeModeMixed:
		if hours := segment.Hours(upto); hours < 24 {
			return hours
		}
		return segment.Days(upto)
	default:
		return segment.Days(upto)
	}
}

// alreadyBilled checks the target invoice and the rest of the ledger for
// a non-voided item billing the reference
func (s *AutoChargeService) alreadyBilled(ctx context.Context, repos TransactionalRepositories, invoice *billing.Invoice, ref billing.ServiceRef) (bool, error) {
	if invoice.HasActiveServiceRef(ref) {
		return true, nil
	}
	existing, err := repos.InvoiceRepo().FindActiveServiceItem(ctx, ref)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}
