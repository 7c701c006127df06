package slack_test

import (
	"certpin/config"
	"certpin/pkg/model"
	"certpin/pkg/slack"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Slack", func() {
	cfg := &config.Configuration{
		SlackUsername: "test",
		SlackIconURL:  "http://test",
	}
	results := []*model.Result{
		{Host: "ok.example", Certificate: &model.Certificate{
			Pin:      "PIN=",
			Subject:  "CN=ok.example",
			Issuer:   "CN=ca",
			NotAfter: time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC),
		}},
		{Host: "down.example", Failure: model.NewFailure(model.FailureNetwork, errors.New("connection refused"))},
		{Host: "empty.example"},
	}

	Describe("NewPayload", func() {
		It("should return a valid payload", func() {
			p := slack.NewPayload(cfg, results)
			Expect(p.Text).Should(Equal("Certificate pins of 3 host(s), 1 failed"))
			Expect(p.Username).Should(Equal("test"))
			Expect(p.IconURL).Should(Equal("http://test"))
			Expect(p.Attachments).Should(HaveLen(3))
		})
		It("should keep host order and describe each outcome", func() {
			p := slack.NewPayload(cfg, results)
			Expect(p.Attachments[0].Title).Should(Equal("ok.example"))
			Expect(p.Attachments[0].Fields[0]).Should(Equal(slack.AttachmentField{Title: "SHA-256 Pin", Value: "PIN="}))
			Expect(p.Attachments[0].Fields).Should(ContainElement(slack.AttachmentField{Title: "Valid To", Value: "2030-06-01T00:00:00Z", Short: true}))
			Expect(p.Attachments[1].Title).Should(Equal("down.example"))
			Expect(p.Attachments[1].Text).Should(Equal("Error: connection refused"))
			Expect(p.Attachments[1].Color).Should(Equal("#ff5400"))
			Expect(p.Attachments[2].Text).Should(Equal("No certificates found"))
		})
	})

	Describe("Post", func() {
		var (
			srv    *httptest.Server
			status int
			body   []byte
		)

		BeforeEach(func() {
			status = http.StatusOK
			body = nil
			srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ = io.ReadAll(r.Body)
				w.WriteHeader(status)
			}))
		})

		AfterEach(func() {
			srv.Close()
		})

		It("should send the payload as JSON", func() {
			c := *cfg
			c.SlackWebhookURL = srv.URL
			Expect(slack.NewPayload(&c, results).Post(&c)).To(Succeed())

			var received slack.Payload
			Expect(json.Unmarshal(body, &received)).To(Succeed())
			Expect(received.Username).Should(Equal("test"))
			Expect(received.Attachments).Should(HaveLen(3))
		})
		It("should return an error if Slack refuses the payload", func() {
			status = http.StatusBadRequest
			c := *cfg
			c.SlackWebhookURL = srv.URL
			Expect(slack.NewPayload(&c, results).Post(&c)).ToNot(Succeed())
		})
	})
})
