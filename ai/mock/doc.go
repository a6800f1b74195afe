// Package mock provides test double implementations of the ai service
// interfaces.
//
// The mocks allow tests to run without a live inference endpoint and enable
// controlled, deterministic behavior via function fields:
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("endpoint down")
//	}
//
// Default behavior:
//
//   - MockEmbedder: deterministic unit vectors derived from an FNV hash of
//     the input text
//   - MockChatModel: echoes a fixed reply with a natural stop signal
//   - MockProvider: aggregates both and reports all configured models
package mock
