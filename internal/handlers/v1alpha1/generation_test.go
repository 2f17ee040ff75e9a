package v1alpha1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	api "github.com/reelmint/reelmint/api/v1alpha1"
	handlers "github.com/reelmint/reelmint/internal/handlers/v1alpha1"
	"github.com/reelmint/reelmint/internal/service"
	"github.com/reelmint/reelmint/internal/store"
)

func TestHandlers(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "handlers suite")
}

type noopTrigger struct {
	dispatched []uuid.UUID
}

func (t *noopTrigger) Dispatch(_ context.Context, jobID uuid.UUID) error {
	t.dispatched = append(t.dispatched, jobID)
	return nil
}

var _ = Describe("generation handler", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		trigger *noopTrigger
		router  chi.Router
	)

	BeforeAll(func() {
		db, err := gorm.Open(sqlite.Open(filepath.Join(GinkgoT().TempDir(), "jobs.db")), &gorm.Config{
			TranslateError: true,
		})
		Expect(err).To(BeNil())
		gormdb = db
		s = store.NewStore(db)
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		Expect(s.Close()).To(BeNil())
	})

	BeforeEach(func() {
		trigger = &noopTrigger{}
		handler := handlers.NewGenerationHandler(service.NewGenerationService(s, trigger))
		router = chi.NewRouter()
		router.Route("/api/v1alpha1", handler.RegisterRoutes)
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM jobs;")
	})

	createBody := func(userID string) []byte {
		body, err := json.Marshal(api.JobCreate{
			SourceVideoUrl:    "https://cdn.example.com/in.mp4",
			CharacterImageUrl: "https://cdn.example.com/char.png",
			UserId:            userID,
		})
		Expect(err).To(BeNil())
		return body
	}

	Context("create job", func() {
		It("returns 201 with the pending job", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/jobs", bytes.NewReader(createBody("user-1")))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusCreated))

			var job api.Job
			Expect(json.Unmarshal(rec.Body.Bytes(), &job)).To(Succeed())
			Expect(job.Status).To(Equal(api.JobStatusPending))
			Expect(job.UserId).To(Equal("user-1"))
			Expect(trigger.dispatched).To(HaveLen(1))
			Expect(trigger.dispatched[0]).To(Equal(job.Id))
		})

		It("rejects a form without a user id", func() {
			body, err := json.Marshal(api.JobCreate{
				SourceVideoUrl:    "https://cdn.example.com/in.mp4",
				CharacterImageUrl: "https://cdn.example.com/char.png",
			})
			Expect(err).To(BeNil())

			req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/jobs", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(trigger.dispatched).To(BeEmpty())
		})

		It("rejects a non-http source url", func() {
			body, err := json.Marshal(api.JobCreate{
				SourceVideoUrl:    "file:///tmp/in.mp4",
				CharacterImageUrl: "https://cdn.example.com/char.png",
				UserId:            "user-1",
			})
			Expect(err).To(BeNil())

			req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/jobs", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/jobs", bytes.NewReader([]byte("{not json")))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("get job", func() {
		It("returns the job by id", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/jobs", bytes.NewReader(createBody("user-1")))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusCreated))

			var created api.Job
			Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())

			req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1alpha1/jobs/%s", created.Id), nil)
			rec = httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var job api.Job
			Expect(json.Unmarshal(rec.Body.Bytes(), &job)).To(Succeed())
			Expect(job.Id).To(Equal(created.Id))
		})

		It("returns 404 for an unknown job", func() {
			req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1alpha1/jobs/%s", uuid.New()), nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs/not-a-uuid", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("list jobs", func() {
		It("filters by user id", func() {
			for _, user := range []string{"user-1", "user-1", "user-2"} {
				req := httptest.NewRequest(http.MethodPost, "/api/v1alpha1/jobs", bytes.NewReader(createBody(user)))
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				Expect(rec.Code).To(Equal(http.StatusCreated))
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1alpha1/jobs?userId=user-1", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusOK))

			var jobs api.JobList
			Expect(json.Unmarshal(rec.Body.Bytes(), &jobs)).To(Succeed())
			Expect(jobs).To(HaveLen(2))
		})
	})
})
