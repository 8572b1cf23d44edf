package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"repo2pipe/internal/analyzer"
)

// AnalyzeProcedure is the Connect procedure path. Requests and responses are
// google.protobuf.Struct values carrying the same fields as the JSON API.
const AnalyzeProcedure = "/repo2pipe.v1.AnalyzeService/Analyze"

// StatusHeader carries the run status on Connect responses.
const StatusHeader = "Repo2pipe-Status"

func (s *Service) connectAnalyzeHandler() (string, http.Handler) {
	return AnalyzeProcedure, connect.NewUnaryHandler(AnalyzeProcedure, s.connectAnalyze)
}

func (s *Service) connectAnalyze(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	fields := req.Msg.GetFields()
	areq, err := analyzeBody{
		Repository: fields["repository"].GetStringValue(),
		Branch:     fields["branch"].GetStringValue(),
		Type:       fields["type"].GetStringValue(),
	}.request()
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	resp, err := s.run(ctx, areq, nil)
	switch {
	case errors.Is(err, errBusy):
		return nil, connect.NewError(connect.CodeResourceExhausted, err)
	case err != nil:
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	msg, err := responseStruct(resp)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	out := connect.NewResponse(msg)
	out.Header().Set(StatusHeader, resp.Status)
	return out, nil
}

// responseStruct converts resp through its JSON form so field names match
// the REST API.
func responseStruct(resp *analyzer.Response) (*structpb.Struct, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return structpb.NewStruct(m)
}
