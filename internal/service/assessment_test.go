package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/config"
	"github.com/studio-labs/assessor/internal/events"
	"github.com/studio-labs/assessor/internal/service"
	"github.com/studio-labs/assessor/internal/service/mappers"
	"github.com/studio-labs/assessor/internal/store"
	"github.com/studio-labs/assessor/internal/store/model"
)

type recordingPublisher struct {
	mu     sync.Mutex
	kinds  []string
	events []events.AssessmentEvent
}

func (p *recordingPublisher) Publish(_ context.Context, kind string, e events.AssessmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kinds = append(p.kinds, kind)
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.kinds...)
}

type recordingArchiver struct {
	archived []uuid.UUID
	err      error
}

func (a *recordingArchiver) Archive(_ context.Context, m model.Assessment) error {
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, m.ID)
	return nil
}

func newCreateForm(owner, symbol string) mappers.AssessmentCreateForm {
	return mappers.AssessmentCreateForm{
		Owner:         owner,
		Symbol:        symbol,
		Amount:        decimal.RequireFromString("2500.75"),
		RiskTolerance: api.RiskToleranceModerate,
		TimeHorizon:   api.TimeHorizonMediumTerm,
	}
}

func readyResult(confidence int) mappers.AssessmentResultForm {
	return mappers.AssessmentResultForm{
		Status: api.AssessmentStatusReady,
		Data: &api.AssessmentData{
			Decision:   api.DecisionBuy,
			Confidence: confidence,
			RiskScore:  5,
			Narrative:  "trend is up",
		},
	}
}

var _ = Describe("Assessment Service", Ordered, func() {
	var (
		s         store.Store
		svc       *service.AssessmentService
		publisher *recordingPublisher
		archiver  *recordingArchiver
	)

	BeforeAll(func() {
		cfg := config.NewSQLite(filepath.Join(GinkgoT().TempDir(), "service.db"))
		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		Expect(s.InitialMigration(context.TODO())).To(Succeed())
	})

	BeforeEach(func() {
		publisher = &recordingPublisher{}
		archiver = &recordingArchiver{}
		svc = service.NewAssessmentService(s, publisher, archiver)
	})

	AfterEach(func() {
		list, err := s.Assessment().List(context.TODO(), store.NewAssessmentQueryFilter(), nil)
		Expect(err).To(BeNil())
		for _, a := range list {
			Expect(s.Assessment().Delete(context.TODO(), a.ID)).To(Succeed())
		}
	})

	AfterAll(func() {
		s.Close()
	})

	Context("CreateAssessment", func() {
		It("creates a generating record and announces it", func() {
			created, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())
			Expect(created.ID).ToNot(Equal(uuid.Nil))
			Expect(created.Status).To(Equal(model.AssessmentStatusGenerating))
			Expect(created.Result).To(BeNil())
			Expect(created.Amount.Equal(decimal.RequireFromString("2500.75"))).To(BeTrue())

			Expect(publisher.Kinds()).To(Equal([]string{events.AssessmentCreatedKind}))
			Expect(publisher.events[0].AssessmentID).To(Equal(created.ID.String()))
		})

		It("keeps a caller provided id and rejects duplicates", func() {
			form := newCreateForm("alice", "ETH")
			form.ID = uuid.New()

			created, err := svc.CreateAssessment(context.TODO(), form)
			Expect(err).To(BeNil())
			Expect(created.ID).To(Equal(form.ID))

			_, err = svc.CreateAssessment(context.TODO(), form)
			Expect(err).ToNot(BeNil())
			_, ok := err.(*service.ErrAssessmentDuplicateID)
			Expect(ok).To(BeTrue())
		})
	})

	Context("GetAssessment", func() {
		It("returns the owner's record", func() {
			created, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())

			got, err := svc.GetAssessment(context.TODO(), created.ID, "alice")
			Expect(err).To(BeNil())
			Expect(got.Symbol).To(Equal("BTC"))
		})

		It("refuses another owner", func() {
			created, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())

			_, err = svc.GetAssessment(context.TODO(), created.ID, "bob")
			_, ok := err.(*service.ErrAssessmentAccessForbidden)
			Expect(ok).To(BeTrue())
		})

		It("reports a missing record", func() {
			_, err := svc.GetAssessment(context.TODO(), uuid.New(), "alice")
			_, ok := err.(*service.ErrResourceNotFound)
			Expect(ok).To(BeTrue())
		})
	})

	Context("ListAssessments", func() {
		It("scopes to the owner and pages", func() {
			for _, symbol := range []string{"BTC", "ETH", "SOL"} {
				_, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", symbol))
				Expect(err).To(BeNil())
			}
			_, err := svc.CreateAssessment(context.TODO(), newCreateForm("bob", "BTC"))
			Expect(err).To(BeNil())

			list, total, err := svc.ListAssessments(context.TODO(), service.NewAssessmentFilter("alice").WithPage(2, 0))
			Expect(err).To(BeNil())
			Expect(list).To(HaveLen(2))
			Expect(total).To(BeEquivalentTo(3))

			list, total, err = svc.ListAssessments(context.TODO(), service.NewAssessmentFilter("alice").WithSymbol("ETH"))
			Expect(err).To(BeNil())
			Expect(list).To(HaveLen(1))
			Expect(total).To(BeEquivalentTo(1))
		})

		It("filters by status", func() {
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())
			_, err = svc.CreateAssessment(context.TODO(), newCreateForm("alice", "ETH"))
			Expect(err).To(BeNil())
			_, err = svc.RecordResult(context.TODO(), a.ID, readyResult(70))
			Expect(err).To(BeNil())

			list, _, err := svc.ListAssessments(context.TODO(), service.NewAssessmentFilter("alice").WithStatus(model.AssessmentStatusReady))
			Expect(err).To(BeNil())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ID).To(Equal(a.ID))
		})
	})

	Context("RecordResult", func() {
		It("completes a record, announces it and archives it", func() {
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())

			updated, err := svc.RecordResult(context.TODO(), a.ID, readyResult(81))
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.AssessmentStatusReady))
			Expect(updated.Result.Data.Confidence).To(Equal(81))
			Expect(updated.ErrorMessage).To(BeNil())

			Expect(publisher.Kinds()).To(Equal([]string{events.AssessmentCreatedKind, events.AssessmentReadyKind}))
			Expect(archiver.archived).To(Equal([]uuid.UUID{a.ID}))
		})

		It("fails a record with a default message", func() {
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())

			updated, err := svc.RecordResult(context.TODO(), a.ID, mappers.AssessmentResultForm{Status: api.AssessmentStatusFailed})
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.AssessmentStatusFailed))
			Expect(*updated.ErrorMessage).ToNot(BeEmpty())
			Expect(updated.Result).To(BeNil())
			Expect(archiver.archived).To(BeEmpty())
		})

		It("refuses a second transition", func() {
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())
			_, err = svc.RecordResult(context.TODO(), a.ID, readyResult(60))
			Expect(err).To(BeNil())

			_, err = svc.RecordResult(context.TODO(), a.ID, mappers.AssessmentResultForm{Status: api.AssessmentStatusFailed, ErrorMessage: "late"})
			_, ok := err.(*service.ErrAssessmentAlreadyFinalized)
			Expect(ok).To(BeTrue())

			got, err := svc.GetAssessment(context.TODO(), a.ID, "alice")
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.AssessmentStatusReady))
		})

		It("rejects a non terminal status and a ready result without data", func() {
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())

			_, err = svc.RecordResult(context.TODO(), a.ID, mappers.AssessmentResultForm{Status: api.AssessmentStatusGenerating})
			_, ok := err.(*service.ErrInvalidResult)
			Expect(ok).To(BeTrue())

			_, err = svc.RecordResult(context.TODO(), a.ID, mappers.AssessmentResultForm{Status: api.AssessmentStatusReady})
			_, ok = err.(*service.ErrInvalidResult)
			Expect(ok).To(BeTrue())
		})

		It("reports an unknown record", func() {
			_, err := svc.RecordResult(context.TODO(), uuid.New(), readyResult(50))
			_, ok := err.(*service.ErrResourceNotFound)
			Expect(ok).To(BeTrue())
		})

		It("does not fail when archiving fails", func() {
			archiver.err = errors.New("storage down")
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())

			updated, err := svc.RecordResult(context.TODO(), a.ID, readyResult(50))
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.AssessmentStatusReady))
		})
	})

	Context("ExpireStale", func() {
		It("fails only records older than the max age", func() {
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())
			done, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "ETH"))
			Expect(err).To(BeNil())
			_, err = svc.RecordResult(context.TODO(), done.ID, readyResult(50))
			Expect(err).To(BeNil())

			// nothing is old enough yet
			n, err := svc.ExpireStale(context.TODO(), 10*time.Minute, time.Now())
			Expect(err).To(BeNil())
			Expect(n).To(Equal(0))

			n, err = svc.ExpireStale(context.TODO(), 10*time.Minute, time.Now().Add(11*time.Minute))
			Expect(err).To(BeNil())
			Expect(n).To(Equal(1))

			got, err := svc.GetAssessment(context.TODO(), a.ID, "alice")
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.AssessmentStatusFailed))
			Expect(*got.ErrorMessage).To(Equal(service.GenerationTimeoutMessage))
			Expect(publisher.Kinds()).To(ContainElement(events.AssessmentExpiredKind))
		})
	})

	Context("DeleteAssessment", func() {
		It("deletes the owner's record only", func() {
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())

			err = svc.DeleteAssessment(context.TODO(), a.ID, "bob")
			_, ok := err.(*service.ErrAssessmentAccessForbidden)
			Expect(ok).To(BeTrue())

			Expect(svc.DeleteAssessment(context.TODO(), a.ID, "alice")).To(Succeed())

			_, err = svc.GetAssessment(context.TODO(), a.ID, "alice")
			_, ok = err.(*service.ErrResourceNotFound)
			Expect(ok).To(BeTrue())
		})
	})

	Context("GetStats and ExportAssessments", func() {
		BeforeEach(func() {
			a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
			Expect(err).To(BeNil())
			_, err = svc.RecordResult(context.TODO(), a.ID, readyResult(80))
			Expect(err).To(BeNil())
			b, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "ETH"))
			Expect(err).To(BeNil())
			_, err = svc.RecordResult(context.TODO(), b.ID, readyResult(60))
			Expect(err).To(BeNil())
			_, err = svc.CreateAssessment(context.TODO(), newCreateForm("alice", "SOL"))
			Expect(err).To(BeNil())
			_, err = svc.CreateAssessment(context.TODO(), newCreateForm("bob", "BTC"))
			Expect(err).To(BeNil())
		})

		It("aggregates the owner's records", func() {
			stats, err := svc.GetStats(context.TODO(), "alice")
			Expect(err).To(BeNil())
			Expect(stats.Total).To(Equal(3))
			Expect(stats.ByStatus).To(HaveKeyWithValue(model.AssessmentStatusReady, 2))
			Expect(stats.ByStatus).To(HaveKeyWithValue(model.AssessmentStatusGenerating, 1))
			Expect(stats.AverageConfidence).To(BeNumerically("~", 70.0))
			Expect(stats.TotalAmount.Equal(decimal.RequireFromString("7502.25"))).To(BeTrue())
		})

		It("exports csv", func() {
			report, err := svc.ExportAssessments(context.TODO(), "alice", service.ReportFormatCSV)
			Expect(err).To(BeNil())
			Expect(report.ContentType).To(Equal("text/csv"))
			Expect(string(report.Content)).To(ContainSubstring("SOL"))
			Expect(string(report.Content)).ToNot(ContainSubstring("bob"))
		})

		It("exports xlsx", func() {
			report, err := svc.ExportAssessments(context.TODO(), "alice", service.ReportFormatXLSX)
			Expect(err).To(BeNil())
			// xlsx files are zip archives
			Expect(report.Content[:2]).To(Equal([]byte("PK")))
		})

		It("refuses an unknown format", func() {
			_, err := svc.ExportAssessments(context.TODO(), "alice", service.ReportFormat("pdf"))
			_, ok := err.(*service.ErrUnsupportedReportFormat)
			Expect(ok).To(BeTrue())
		})
	})
})
