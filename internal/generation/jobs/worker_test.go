package jobs_test

import (
	"testing"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reelmint/reelmint/internal/generation/jobs"
)

func TestJobs(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Jobs Suite")
}

var _ = Describe("GenerationArgs", func() {
	Describe("Kind", func() {
		It("returns the correct job kind", func() {
			args := jobs.GenerationArgs{}
			Expect(args.Kind()).To(Equal("generation_run"))
		})
	})

	Describe("InsertOpts", func() {
		It("returns default insert options", func() {
			args := jobs.GenerationArgs{JobID: uuid.New()}
			opts := args.InsertOpts()
			Expect(opts.Queue).To(Equal(jobs.DefaultQueue))
			Expect(opts.MaxAttempts).To(Equal(jobs.MaxJobRetries))
		})
	})
})

var _ = Describe("GenerationWorker", func() {
	Describe("Timeout", func() {
		It("keeps the attempt bound above the poll deadline", func() {
			worker := jobs.NewGenerationWorker(nil)
			Expect(worker.Timeout(nil)).To(Equal(jobs.JobTimeout))
		})
	})
})
