package webhook_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/danielolaszy/triage/internal/automation"
	"github.com/danielolaszy/triage/internal/capability"
	"github.com/danielolaszy/triage/internal/scoring"
	"github.com/danielolaszy/triage/internal/webhook"
	"github.com/danielolaszy/triage/pkg/models"
)

type processCall struct {
	action string
	issue  models.Issue
	owner  string
	repo   string
	token  string
	cfg    automation.Config
}

type fakeService struct {
	calls   []processCall
	result  automation.EventResult
	entries []models.AutomationLogEntry
	limit   int
	cleared bool
}

func (f *fakeService) ProcessIssueEvent(ctx context.Context, action string, issue models.Issue, owner, repo, token string, cfg automation.Config) automation.EventResult {
	f.calls = append(f.calls, processCall{action, issue, owner, repo, token, cfg})
	return f.result
}

func (f *fakeService) AutomationLog(limit int) []models.AutomationLogEntry {
	f.limit = limit
	return f.entries
}

func (f *fakeService) ClearAutomationLog() {
	f.cleared = true
}

type fakeTracker struct {
	comments map[int][]string
	labels   map[int][]string
}

func (f *fakeTracker) FetchIssue(ctx context.Context, owner, repo string, number int, token string) (*models.Issue, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTracker) FetchOpenIssues(ctx context.Context, owner, repo, token string, opts models.IssueListOptions) ([]models.Issue, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTracker) PostComment(ctx context.Context, owner, repo string, number int, body, token string) error {
	f.comments[number] = append(f.comments[number], body)
	return nil
}

func (f *fakeTracker) AddLabels(ctx context.Context, owner, repo string, number int, labels []string, token string) error {
	f.labels[number] = append(f.labels[number], labels...)
	return nil
}

func issuesPayload(action string, labels ...string) []byte {
	labelObjs := make([]map[string]string, 0, len(labels))
	for _, l := range labels {
		labelObjs = append(labelObjs, map[string]string{"name": l})
	}
	body := map[string]interface{}{
		"action": action,
		"issue": map[string]interface{}{
			"number": 42,
			"title":  "Add React component for user profile",
			"body":   "We need a NextJS component styled with Tailwind CSS.",
			"state":  "open",
			"labels": labelObjs,
		},
		"repository": map[string]interface{}{
			"name":  "app",
			"owner": map[string]interface{}{"login": "octo"},
		},
	}
	payload, _ := json.Marshal(body)
	return payload
}

func deliver(router *gin.Engine, event string, payload []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	if event != "" {
		req.Header.Set("X-GitHub-Event", event)
	}
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var _ = Describe("Handler", func() {
	var (
		router  *gin.Engine
		service *fakeService
		policy  automation.Config
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		service = &fakeService{result: automation.EventResult{Processed: true, Reason: "Triage comment posted"}}
		policy = automation.Config{Enabled: true, ConfidenceThreshold: 60, ExcludeLabels: []string{"wontfix"}}
		router = webhook.NewRouter(webhook.NewHandler(service, policy, "server-token", 0))
	})

	It("hands issue events to the automation service", func() {
		w := deliver(router, "issues", issuesPayload("opened", "ui/ux"))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(service.calls).To(HaveLen(1))
		call := service.calls[0]
		Expect(call.action).To(Equal("opened"))
		Expect(call.owner).To(Equal("octo"))
		Expect(call.repo).To(Equal("app"))
		Expect(call.token).To(Equal("server-token"))
		Expect(call.issue.Number).To(Equal(42))
		Expect(call.issue.Labels).To(ConsistOf("ui/ux"))
		Expect(call.cfg).To(Equal(policy))

		var result automation.EventResult
		Expect(json.Unmarshal(w.Body.Bytes(), &result)).To(Succeed())
		Expect(result.Processed).To(BeTrue())
		Expect(result.Reason).To(Equal("Triage comment posted"))
	})

	It("answers pings", func() {
		w := deliver(router, "ping", []byte(`{"zen": "Keep it logically awesome."}`))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("pong"))
		Expect(service.calls).To(BeEmpty())
	})

	It("ignores unsupported events", func() {
		w := deliver(router, "push", []byte(`{}`))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("unsupported event: push"))
		Expect(service.calls).To(BeEmpty())
	})

	It("rejects deliveries without an event header", func() {
		w := deliver(router, "", issuesPayload("opened"))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects malformed payloads", func() {
		w := deliver(router, "issues", []byte(`{"action": "opened",`))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(service.calls).To(BeEmpty())
	})

	It("rejects issue events without an issue", func() {
		w := deliver(router, "issues", []byte(`{"action": "opened", "repository": {"name": "app"}}`))

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("serves and clears the automation log", func() {
		service.entries = []models.AutomationLogEntry{{IssueNumber: 1, Action: automation.ActionAssigned}}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/automation/log?limit=5", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(service.limit).To(Equal(5))
		Expect(w.Body.String()).To(ContainSubstring(`"count":1`))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/automation/log?limit=-1", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/automation/log", nil))
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(service.cleared).To(BeTrue())
	})

	It("reports health", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
	})
})

var _ = Describe("Handler with the automation service", func() {
	var (
		router  *gin.Engine
		tracker *fakeTracker
		policy  automation.Config
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		dir := GinkgoT().TempDir()
		profile := "---\nname: frontend-developer\nkeywords: [react, css, component, tailwind, frontend]\n---\n"
		Expect(os.WriteFile(filepath.Join(dir, "frontend-developer.md"), []byte(profile), 0o644)).To(Succeed())

		tracker = &fakeTracker{comments: map[int][]string{}, labels: map[int][]string{}}
		service := automation.New(tracker, capability.NewFileProvider(), automation.Options{
			Scoring:  scoring.DefaultConfig(),
			AgentDir: dir,
		})
		policy = automation.Config{Enabled: true, ConfidenceThreshold: 60, ExcludeLabels: []string{"wontfix"}}
		router = webhook.NewRouter(webhook.NewHandler(service, policy, "", 0))
	})

	decode := func(w *httptest.ResponseRecorder) automation.EventResult {
		var result automation.EventResult
		Expect(json.Unmarshal(w.Body.Bytes(), &result)).To(Succeed())
		return result
	}

	It("ignores actions other than opened", func() {
		result := decode(deliver(router, "issues", issuesPayload("labeled")))

		Expect(result.Processed).To(BeFalse())
		Expect(result.Reason).To(Equal("Ignoring action: labeled"))
		Expect(tracker.comments).To(BeEmpty())
	})

	It("skips issues with an excluded label", func() {
		result := decode(deliver(router, "issues", issuesPayload("opened", "WontFix")))

		Expect(result.Processed).To(BeFalse())
		Expect(result.Reason).To(ContainSubstring("excluded label"))
	})

	It("posts a triage comment for opened issues", func() {
		result := decode(deliver(router, "issues", issuesPayload("opened")))

		Expect(result.Processed).To(BeTrue())
		Expect(result.Triage).NotTo(BeNil())
		Expect(result.Triage.SuggestedAgents).NotTo(BeEmpty())
		Expect(result.Triage.SuggestedAgents[0].AgentName).To(Equal("frontend-developer"))
		Expect(tracker.comments[42]).To(HaveLen(1))
		Expect(tracker.comments[42][0]).To(ContainSubstring("frontend-developer"))
	})
})
