package badger

// NewMemoryChatStore creates an in-memory chat store for testing.
// Caller must close both the store and the backend when done.
func NewMemoryChatStore() (*ChatStore, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	store, err := NewChatStore(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return store, backend, nil
}
