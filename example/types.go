package example

import (
	"context"
	"time"

	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type Direction int

const (
	North Direction = iota
	East
	South
	West
)

type OpCode byte

const (
	Op_Read OpCode = iota + 1
	Op_Write
	Op_Add
)

type EchoRequest struct {
	Text  string               `json:"text" validate:"required"`
	Bar   time.Duration        `json:"bar"`
	Code  OpCode               `json:"code"`
	Dir   Direction            `json:"dir" validate:"gte=0,lte=3"`
	Maps  map[string]Direction `json:"maps"`
	Items []string             `json:"items"`
}

// EchoResponse.
type EchoResponse struct {
	Text string `json:"text"` // field comment.
	User string `json:"user"`
	Old  string `json:"old"` // Deprecated! Use field Text.
}

// Page selects a part of a list. It is sent as query parameters.
type Page struct {
	Offset int `schema:"offset"`
	Limit  int `schema:"limit,omitempty"`
}

// Echo is the JSON part of the API.
type Echo struct {
	Hello   func(ctx context.Context, key string) (string, error)                                    `endpoint:"POST /hello" params:"key"`
	Echo    func(ctx context.Context, session, user string, req *EchoRequest) (*EchoResponse, error) `endpoint:"POST /sessions/{session}/echo" params:"session,user,req:body"`
	History func(ctx context.Context, session string, page Page) ([]string, error)                   `endpoint:"GET /sessions/{session}/history" params:"session,page"`
	Forget  func(ctx context.Context, session string) error                                          `endpoint:"DELETE /sessions/{session}" params:"session" tags:"write"`
}

// Clock is the protobuf part of the API.
type Clock struct {
	Since func(ctx context.Context, t *timestamppb.Timestamp) (*durationpb.Duration, error) `endpoint:"POST /since" params:"t:body"`
}
