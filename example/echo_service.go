package example

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const SecretKey = "secret password"

var ErrBadSession = fmt.Errorf("bad session")

type EchoRepository struct {
}

func NewEchoRepository() *EchoRepository {
	return &EchoRepository{}
}

type Result struct {
	Data string
}

func (s *EchoRepository) Generate() (*Result, error) {
	sessionBytes := make([]byte, 16)
	if _, err := rand.Read(sessionBytes); err != nil {
		return nil, err
	}
	session := hex.EncodeToString(sessionBytes)
	return &Result{Data: session}, nil
}

// EchoService is the server side of Echo and Clock.
type EchoService struct {
	repo *EchoRepository

	mu       sync.Mutex
	sessions map[string][]string
}

func NewEchoService(repo *EchoRepository) *EchoService {
	return &EchoService{
		sessions: make(map[string][]string),
		repo:     repo,
	}
}

func (s *EchoService) Hello(ctx context.Context, key string) (string, error) {
	if key != SecretKey {
		return "", fmt.Errorf("bad key")
	}
	session, err := s.repo.Generate()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Data] = []string{}
	return session.Data, nil
}

func (s *EchoService) Echo(ctx context.Context, session, user string, req *EchoRequest) (*EchoResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, has := s.sessions[session]
	if !has {
		return nil, ErrBadSession
	}
	s.sessions[session] = append(history, req.Text)
	return &EchoResponse{
		Text: req.Text,
		User: user,
	}, nil
}

func (s *EchoService) History(ctx context.Context, session string, page Page) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history, has := s.sessions[session]
	if !has {
		return nil, ErrBadSession
	}
	if page.Offset >= len(history) {
		return []string{}, nil
	}
	history = history[page.Offset:]
	if page.Limit > 0 && page.Limit < len(history) {
		history = history[:page.Limit]
	}
	return append([]string{}, history...), nil
}

func (s *EchoService) Forget(ctx context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, has := s.sessions[session]; !has {
		return ErrBadSession
	}
	delete(s.sessions, session)
	return nil
}

func (s *EchoService) Since(ctx context.Context, t *timestamppb.Timestamp) (*durationpb.Duration, error) {
	t1 := time.Date(2010, time.July, 10, 11, 30, 0, 0, time.UTC)
	t2 := t.AsTime()
	return durationpb.New(t2.Sub(t1)), nil
}
