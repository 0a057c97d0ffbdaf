package service_test

import (
	"context"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/studio-labs/assessor/internal/config"
	"github.com/studio-labs/assessor/internal/service"
	"github.com/studio-labs/assessor/internal/store"
	"github.com/studio-labs/assessor/internal/store/model"
)

var _ = Describe("Reaper", Ordered, func() {
	var (
		s   store.Store
		svc *service.AssessmentService
	)

	BeforeAll(func() {
		cfg := config.NewSQLite(filepath.Join(GinkgoT().TempDir(), "reaper.db"))
		db, err := store.InitDB(cfg)
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		Expect(s.InitialMigration(context.TODO())).To(Succeed())
		svc = service.NewAssessmentService(s, nil, nil)
	})

	AfterAll(func() {
		s.Close()
	})

	It("expires records once the clock passes the max age", func() {
		a, err := svc.CreateAssessment(context.TODO(), newCreateForm("alice", "BTC"))
		Expect(err).To(BeNil())

		clk := clocktesting.NewFakeClock(time.Now())
		reaper := service.NewReaperWithClock(svc, 10*time.Minute, time.Minute, clk)

		n, err := reaper.Sweep(context.TODO())
		Expect(err).To(BeNil())
		Expect(n).To(Equal(0))

		clk.Step(10*time.Minute + time.Second)
		n, err = reaper.Sweep(context.TODO())
		Expect(err).To(BeNil())
		Expect(n).To(Equal(1))

		got, err := svc.GetAssessment(context.TODO(), a.ID, "alice")
		Expect(err).To(BeNil())
		Expect(got.Status).To(Equal(model.AssessmentStatusFailed))

		// a second sweep finds nothing left to expire
		n, err = reaper.Sweep(context.TODO())
		Expect(err).To(BeNil())
		Expect(n).To(Equal(0))
	})

	It("stops when the context is cancelled", func() {
		reaper := service.NewReaper(svc, 10*time.Minute, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- reaper.Run(ctx) }()

		cancel()
		Eventually(done).Should(Receive(BeNil()))
	})
})
