package service

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/config"
	"github.com/stemsi/exstem-quiz/internal/model"
)

func newTokenService(secret string) *TokenService {
	return NewTokenService(&config.Config{TokenSecret: secret, TokenExpiry: time.Hour})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTokenService("s3cret")
	sess := model.Session{ID: uuid.New(), Mode: model.ModeExam}

	token, err := svc.Issue(sess)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	id, err := claims.SessionID()
	if err != nil || id != sess.ID {
		t.Errorf("SessionID() = %s, %v, want %s", id, err, sess.ID)
	}
	if claims.Mode != model.ModeExam {
		t.Errorf("Mode = %s, want exam", claims.Mode)
	}
}

func TestTokenRejections(t *testing.T) {
	svc := newTokenService("s3cret")
	sess := model.Session{ID: uuid.New(), Mode: model.ModeQuiz}
	token, _ := svc.Issue(sess)

	expired := newTokenService("s3cret")
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldToken, _ := expired.Issue(sess)

	tests := []struct {
		name  string
		svc   *TokenService
		token string
	}{
		{"wrong secret", newTokenService("other"), token},
		{"garbage", svc, "not-a-token"},
		{"expired", svc, oldToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.svc.Validate(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}
