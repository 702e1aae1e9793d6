package memory

import (
	"testing"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}
