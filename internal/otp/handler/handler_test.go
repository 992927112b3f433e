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

	"vericred/internal/otp"
	"vericred/internal/otp/handler/mocks"
	dErrors "vericred/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/otp-mocks.go -package=mocks Service
type OTPHandlerSuite struct {
	suite.Suite
}

func TestOTPHandlerSuite(t *testing.T) {
	suite.Run(t, new(OTPHandlerSuite))
}

func (s *OTPHandlerSuite) newHandler(echoCodes bool) (*Handler, *mocks.MockService) {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(mockService, logger, echoCodes), mockService
}

func (s *OTPHandlerSuite) post(h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func (s *OTPHandlerSuite) TestHandleGenerate() {
	s.Run("development response echoes the code", func() {
		handler, mockService := s.newHandler(true)
		mockService.EXPECT().
			Issue(gomock.Any(), otp.ChannelPhone, "9876543210").
			Return(otp.Challenge{Code: "482915"}, nil)

		w := s.post(handler.HandleGenerate, GenerateRequest{
			IdentityType:  "PHONE",
			IdentityValue: "9876543210",
		})

		s.Equal(http.StatusOK, w.Code)
		var resp GenerateResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("OTP sent to PHONE 9876543210", resp.Message)
		s.Equal("5 minutes", resp.ExpiresIn)
		s.Equal("482915", resp.DevOTP)
	})

	s.Run("production response never carries the code", func() {
		handler, mockService := s.newHandler(false)
		mockService.EXPECT().
			Issue(gomock.Any(), otp.ChannelPhone, "9876543210").
			Return(otp.Challenge{Code: "482915"}, nil)

		w := s.post(handler.HandleGenerate, GenerateRequest{
			IdentityType:  "PHONE",
			IdentityValue: "9876543210",
		})

		s.Equal(http.StatusOK, w.Code)
		s.NotContains(w.Body.String(), "482915")
		s.NotContains(w.Body.String(), "dev_otp")
	})

	s.Run("unknown identity type is rejected", func() {
		handler, _ := s.newHandler(true)

		w := s.post(handler.HandleGenerate, GenerateRequest{
			IdentityType:  "EMAIL",
			IdentityValue: "a@b.example",
		})

		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *OTPHandlerSuite) TestHandleVerify() {
	s.Run("success", func() {
		handler, mockService := s.newHandler(false)
		mockService.EXPECT().
			Verify(gomock.Any(), otp.ChannelPrimaryID, "123456789012", "482915").
			Return(nil)

		w := s.post(handler.HandleVerify, VerifyRequest{
			IdentityType:  "PRIMARY_ID",
			IdentityValue: "123456789012",
			OTP:           "482915",
		})

		s.Equal(http.StatusOK, w.Code)
		var resp VerifyResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.True(resp.Verified)
		s.Equal("123456789012", resp.Identity)
	})

	s.Run("incorrect code maps to bad request", func() {
		handler, mockService := s.newHandler(false)
		mockService.EXPECT().
			Verify(gomock.Any(), otp.ChannelPrimaryID, "123456789012", "000000").
			Return(dErrors.New(dErrors.CodeBadRequest, "incorrect OTP"))

		w := s.post(handler.HandleVerify, VerifyRequest{
			IdentityType:  "PRIMARY_ID",
			IdentityValue: "123456789012",
			OTP:           "000000",
		})

		s.Equal(http.StatusBadRequest, w.Code)
		s.Contains(w.Body.String(), "incorrect OTP")
	})

	s.Run("code must be six digits", func() {
		handler, _ := s.newHandler(false)

		w := s.post(handler.HandleVerify, VerifyRequest{
			IdentityType:  "PHONE",
			IdentityValue: "9876543210",
			OTP:           "12345",
		})

		s.Equal(http.StatusBadRequest, w.Code)
	})
}
