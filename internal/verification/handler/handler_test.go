package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vericred/internal/scoring"
	"vericred/internal/verification"
	"vericred/internal/verification/handler/mocks"
	dErrors "vericred/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/verification-mocks.go -package=mocks Service
type VerificationHandlerSuite struct {
	suite.Suite
}

func TestVerificationHandlerSuite(t *testing.T) {
	suite.Run(t, new(VerificationHandlerSuite))
}

func (s *VerificationHandlerSuite) newHandler() (*Handler, *mocks.MockService) {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(mockService, logger), mockService
}

func (s *VerificationHandlerSuite) post(h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func (s *VerificationHandlerSuite) TestHandleFullCheck() {
	s.Run("approved outcome is returned as a payload", func() {
		handler, mockService := s.newHandler()
		mockService.EXPECT().
			Evaluate(gomock.Any(), verification.EvaluateRequest{
				PrimaryNumber:   "123456789012",
				SecondaryNumber: "ABCDE1234F",
				Registration:    "27ABCDE1234F1ZA",
			}).
			Return(verification.Outcome{
				Verified:         true,
				CreditScore:      742,
				RiskCategory:     scoring.RiskLow,
				Recommendation:   scoring.Approve,
				OwnerScore:       850,
				EntityScore:      630,
				TransactionScore: 750,
				Reasons:          []string{},
			}, nil)

		w := s.post(handler.HandleFullCheck, FullCheckRequest{
			PrimaryNumber:   "123456789012",
			SecondaryNumber: "ABCDE1234F",
			Registration:    "27ABCDE1234F1ZA",
		})

		s.Equal(http.StatusOK, w.Code)
		var resp verification.Payload
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.True(resp.VerificationComplete)
		s.True(resp.Verified)
		s.Equal(742, resp.CreditScore)
		s.Equal("LOW_RISK", resp.RiskCategory)
		s.Equal("APPROVE", resp.Recommendation)
		s.Equal(630, resp.CompanyScore)
		s.Empty(resp.Flags)
		s.Empty(resp.Reason)
	})

	s.Run("rejection carries joined reasons", func() {
		handler, mockService := s.newHandler()
		mockService.EXPECT().
			Evaluate(gomock.Any(), gomock.Any()).
			Return(verification.Outcome{
				Verified:       false,
				CreditScore:    270,
				RiskCategory:   scoring.RiskHigh,
				Recommendation: scoring.Reject,
				Reasons: []string{
					verification.ReasonIdentityBlacklisted,
					verification.ReasonLowCreditScore,
				},
			}, nil)

		w := s.post(handler.HandleFullCheck, FullCheckRequest{
			PrimaryNumber:   "123456789012",
			SecondaryNumber: "ABCDE1234F",
			Registration:    "27ABCDE1234F1ZA",
		})

		s.Equal(http.StatusOK, w.Code)
		var resp verification.Payload
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.False(resp.Verified)
		s.Equal("IDENTITY_BLACKLISTED, LOW_CREDIT_SCORE", resp.Reason)
		s.Equal([]string{"IDENTITY_BLACKLISTED", "LOW_CREDIT_SCORE"}, resp.Flags)
	})

	s.Run("missing fields fail validation before the service is called", func() {
		handler, _ := s.newHandler()

		w := s.post(handler.HandleFullCheck, FullCheckRequest{
			PrimaryNumber: "123456789012",
		})

		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unverified identity maps to a bad request", func() {
		handler, mockService := s.newHandler()
		mockService.EXPECT().
			Evaluate(gomock.Any(), gomock.Any()).
			Return(verification.Outcome{}, dErrors.New(dErrors.CodeBadRequest, "primary identity OTP verification is required before a full check"))

		w := s.post(handler.HandleFullCheck, FullCheckRequest{
			PrimaryNumber:   "123456789012",
			SecondaryNumber: "ABCDE1234F",
			Registration:    "27ABCDE1234F1ZA",
		})

		s.Equal(http.StatusBadRequest, w.Code)
	})
}
