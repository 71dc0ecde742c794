package llmextract

import "context"

// FakeClient returns a canned set of fields regardless of input, for use
// by exploration/contact/discovery tests that should not perform real
// network calls.
type FakeClient struct {
	Fields map[string]any
	Err    error
	Calls  []ExtractRequest
}

func (f *FakeClient) ExtractFields(ctx context.Context, req ExtractRequest) (ExtractResult, error) {
	f.Calls = append(f.Calls, req)
	if f.Err != nil {
		return ExtractResult{}, f.Err
	}
	return ExtractResult{Fields: f.Fields}, nil
}

var _ Client = (*FakeClient)(nil)
