package data

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/covid_radar/app/covid_radar/pkg/storage"
	"github.com/iWorld-y/covid_radar/app/display/internal/conf"
)

type Data struct {
	store storage.Store
}

// NewData 打开采集任务写入的同一个存储
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	if c == nil || c.Database == nil {
		return nil, nil, fmt.Errorf("data.database is not configured")
	}

	var (
		store storage.Store
		err   error
	)
	switch c.Database.Driver {
	case "memory":
		store = storage.NewMemoryStore()
	case "postgres", "sqlite":
		store, err = storage.NewSQLStore(context.Background(), storage.Dialect(c.Database.Driver), c.Database.Source)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("unknown database driver: %s", c.Database.Driver)
	}

	cleanup := func() {
		log.NewHelper(logger).Info("closing the data resources")
		store.Close()
	}
	return &Data{store: store}, cleanup, nil
}
