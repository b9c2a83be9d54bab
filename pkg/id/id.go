package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// id.go - генерация идентификаторов заявок на одобрение
//
// ULID сортируется лексикографически по времени создания,
// поэтому список ожидающих сделок упорядочен без отдельного индекса.

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New возвращает ULID для момента now.
// В пределах одной миллисекунды значения строго возрастают.
func New(now time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now.UTC()), mono)
	if err != nil {
		// возможно только при исчерпании монотонной энтропии в одну миллисекунду
		panic(err)
	}
	return id.String()
}

// Time извлекает момент создания из ULID
func Time(s string) (time.Time, error) {
	id, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(id.Time()).UTC(), nil
}
