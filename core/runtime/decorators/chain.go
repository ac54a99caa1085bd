package decorators

import (
	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/domain/search"
)

// Chain applies decorators in order, feeding each the previous output
type Chain struct {
	decorators []interfaces.QueryDecorator
}

// NewChain creates a decorator chain
func NewChain(decorators ...interfaces.QueryDecorator) *Chain {
	return &Chain{decorators: decorators}
}

// Decorate runs every decorator and stops at the first failure
func (c *Chain) Decorate(query string, params search.ParameterProvider, req search.ValidationRequest) (string, error) {
	decorated := query
	for _, d := range c.decorators {
		var err error
		decorated, err = d.Decorate(decorated, params, req)
		if err != nil {
			return "", err
		}
	}
	return decorated, nil
}
