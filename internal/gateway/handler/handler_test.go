package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vericred/internal/gateway"
	"vericred/internal/gateway/handler/mocks"
	"vericred/internal/gateway/store"
	"vericred/internal/scoring"
	"vericred/internal/verification"
	"vericred/pkg/platform/audit"
	auditmemory "vericred/pkg/platform/audit/store/memory"
	"vericred/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/gateway-mocks.go -package=mocks Auth,Evaluator

// The suite runs the real authentication service over a memory store so the
// wire checks execute in their real order; only the evaluator is mocked.
type GatewayHandlerSuite struct {
	suite.Suite
	auth      *gateway.Service
	evaluator *mocks.MockEvaluator
	handler   *Handler
	consumer  gateway.Consumer
}

func TestGatewayHandlerSuite(t *testing.T) {
	suite.Run(t, new(GatewayHandlerSuite))
}

func (s *GatewayHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.auth, err = gateway.NewService(store.NewMemory(), auditmemory.New(), nil, logger, nil)
	s.Require().NoError(err)
	s.evaluator = mocks.NewMockEvaluator(ctrl)
	s.handler = New(s.auth, s.evaluator, logger)

	s.consumer, err = s.auth.IssueKeys(context.Background(), "Test Partner")
	s.Require().NoError(err)
}

func (s *GatewayHandlerSuite) signedRequest(body []byte, mutate func(*http.Request)) *httptest.ResponseRecorder {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/external/v1/credit-evaluate", bytes.NewReader(body))
	req.Header.Set(HeaderAPIKey, s.consumer.APIKey)
	req.Header.Set(HeaderTimestamp, ts)
	req.Header.Set(HeaderSignature, gateway.Sign(s.consumer.Secret, ts, body))
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	s.handler.HandleCreditEvaluate(w, req)
	return w
}

func (s *GatewayHandlerSuite) TestHandleCreditEvaluate() {
	validBody := []byte(`{"gst_number":"27ABCDE1234F1ZA","aadhaar_number":"123456789012","pan_number":"ABCDE1234F"}`)

	s.Run("signed request reaches the evaluator with the gateway actor", func() {
		s.evaluator.EXPECT().
			Evaluate(gomock.Any(), verification.EvaluateRequest{
				PrimaryNumber:   "123456789012",
				SecondaryNumber: "ABCDE1234F",
				Registration:    "27ABCDE1234F1ZA",
			}).
			DoAndReturn(func(ctx context.Context, _ verification.EvaluateRequest) (verification.Outcome, error) {
				s.Equal(audit.ActorGateway, requestcontext.Actor(ctx))
				return verification.Outcome{
					Verified:       true,
					CreditScore:    610,
					RiskCategory:   scoring.RiskLow,
					Recommendation: scoring.Approve,
					Reasons:        []string{},
				}, nil
			})

		w := s.signedRequest(validBody, nil)

		s.Equal(http.StatusOK, w.Code)
		var resp verification.Payload
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.True(resp.VerificationComplete)
		s.Equal(610, resp.CreditScore)
		s.Equal([]string{}, resp.Flags)
	})

	s.Run("unknown API key is rejected before anything else", func() {
		w := s.signedRequest(validBody, func(r *http.Request) {
			r.Header.Set(HeaderAPIKey, "api_deadbeef")
		})
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("malformed timestamp is a bad request", func() {
		w := s.signedRequest(validBody, func(r *http.Request) {
			r.Header.Set(HeaderTimestamp, "not-a-number")
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("stale timestamp is rejected even with a valid signature", func() {
		stale := strconv.FormatInt(time.Now().Add(-5*time.Minute).Unix(), 10)
		w := s.signedRequest(validBody, func(r *http.Request) {
			r.Header.Set(HeaderTimestamp, stale)
			r.Header.Set(HeaderSignature, gateway.Sign(s.consumer.Secret, stale, validBody))
		})
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("tampered body invalidates the signature", func() {
		w := s.signedRequest(validBody, func(r *http.Request) {
			tampered := bytes.Replace(validBody, []byte("27ABCDE"), []byte("29ABCDE"), 1)
			r.Body = io.NopCloser(bytes.NewReader(tampered))
			r.ContentLength = int64(len(tampered))
		})
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("signed garbage body fails parsing after authentication", func() {
		w := s.signedRequest([]byte(`not json`), nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("signed body missing fields fails validation", func() {
		w := s.signedRequest([]byte(`{"gst_number":"27ABCDE1234F1ZA"}`), nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *GatewayHandlerSuite) TestHandleGenerateKeys() {
	s.Run("issues credentials once", func() {
		body, err := json.Marshal(GenerateKeysRequest{Name: "New Partner"})
		s.Require().NoError(err)
		req := httptest.NewRequest(http.MethodPost, "/external/generate-keys", bytes.NewReader(body))
		w := httptest.NewRecorder()
		s.handler.HandleGenerateKeys(w, req)

		s.Equal(http.StatusCreated, w.Code)
		var resp GenerateKeysResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Regexp("^api_[0-9a-f]{32}$", resp.APIKey)
		s.Regexp("^sec_[0-9a-f]{48}$", resp.APISecret)
	})

	s.Run("name is required", func() {
		req := httptest.NewRequest(http.MethodPost, "/external/generate-keys", bytes.NewReader([]byte(`{}`)))
		w := httptest.NewRecorder()
		s.handler.HandleGenerateKeys(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}
