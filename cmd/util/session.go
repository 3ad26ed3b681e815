package util

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/rKV/lib/codec"
	"github.com/ValentinKolb/rKV/lib/kvstore"
	"github.com/ValentinKolb/rKV/lib/medium"
	"github.com/ValentinKolb/rKV/lib/medium/badgermedium"
	"github.com/ValentinKolb/rKV/lib/medium/fsmedium"
	"github.com/ValentinKolb/rKV/lib/medium/memory"
	"github.com/ValentinKolb/rKV/lib/medium/sqlmedium"
	"github.com/ValentinKolb/rKV/lib/reactive"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Session is the store a command operates on
type Session struct {
	Store    *kvstore.Store
	Registry *reactive.Registry
	close    func() error
}

// Close releases the medium of the session
func (s *Session) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// OpenSession binds the command flags, initializes logging and opens the
// configured store
func OpenSession(cmd *cobra.Command) (*Session, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}
	if err := InitLogging(); err != nil {
		return nil, err
	}

	c, err := codec.ByName(viper.GetString("codec"))
	if err != nil {
		return nil, err
	}

	m, closeMedium, err := OpenMedium(viper.GetString("medium"), viper.GetString("path"))
	if err != nil {
		return nil, err
	}

	store := kvstore.Instance(m,
		kvstore.WithPrefix(viper.GetString("prefix")),
		kvstore.WithCodec(c),
	)

	return &Session{
		Store:    store,
		Registry: reactive.NewRegistry(store),
		close:    closeMedium,
	}, nil
}

// OpenMedium creates a context of the named medium. The returned function
// closes the context and its origin.
func OpenMedium(name, path string) (medium.IMedium, func() error, error) {
	switch name {
	case "memory":
		m := memory.New()
		return m, m.Close, nil

	case "fs":
		m, err := fsmedium.Open(pathOr(path, "rkv-data"))
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil

	case "badger":
		origin, err := badgermedium.Open(badgermedium.DefaultConfig(pathOr(path, "rkv-badger")))
		if err != nil {
			return nil, nil, err
		}
		m, err := origin.NewContext()
		if err != nil {
			_ = origin.Close()
			return nil, nil, err
		}
		return m, func() error { return errors.Join(m.Close(), origin.Close()) }, nil

	case "sqlite":
		m, err := sqlmedium.Open(sqlmedium.DefaultConfig(pathOr(path, "rkv.db")))
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil

	default:
		return nil, nil, fmt.Errorf("invalid medium %s", name)
	}
}

func pathOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}
