package testutil

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// FakeParameterStore records SSM PutParameter calls.
type FakeParameterStore struct {
	mu     sync.Mutex
	values map[string]string
	inputs []*ssm.PutParameterInput

	// Err is returned from PutParameter when set.
	Err error
	// FailOn fails only writes to this parameter name.
	FailOn string
}

// NewFakeParameterStore creates an empty store.
func NewFakeParameterStore() *FakeParameterStore {
	return &FakeParameterStore{values: make(map[string]string)}
}

func (f *FakeParameterStore) PutParameter(_ context.Context, in *ssm.PutParameterInput, _ ...func(*ssm.Options)) (*ssm.PutParameterOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	name := aws.ToString(in.Name)
	if f.Err != nil && (f.FailOn == "" || f.FailOn == name) {
		return nil, f.Err
	}
	f.values[name] = aws.ToString(in.Value)
	return &ssm.PutParameterOutput{Version: int64(len(f.inputs))}, nil
}

// Value returns the stored value of a parameter.
func (f *FakeParameterStore) Value(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[name]
	return v, ok
}

// Inputs returns every PutParameter input received.
func (f *FakeParameterStore) Inputs() []*ssm.PutParameterInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*ssm.PutParameterInput(nil), f.inputs...)
}
