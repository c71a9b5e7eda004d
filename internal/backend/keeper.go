package backend

import (
	"context"

	"github.com/PRECISEKY/food-admin-panel/internal/authstate"
)

// RedisKeeper адаптирует authstate.Keeper к SessionKeeper.
type RedisKeeper struct {
	*authstate.Keeper
}

// Subscribe подписывается на события клиента.
func (k RedisKeeper) Subscribe(ctx context.Context, clientID string) (Feed, error) {
	sub, err := k.Keeper.Subscribe(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
