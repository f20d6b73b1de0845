//go:build unit || integration

package data

import "context"

func contextForTest() context.Context {
	return WithActor(context.Background(), "tester@example.com")
}
