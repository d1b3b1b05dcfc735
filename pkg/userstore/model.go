package userstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/user"
)

// UserDao is a data access object that maps directly to the 'users' table in PostgreSQL.
type UserDao struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            string       `bun:"id,pk,type:varchar(36)"`
	Username      *string      `bun:"username,unique,type:varchar(32)"`
	PasswordHash  *string      `bun:"password_hash,type:varchar(72)"`
	CreatedAt     time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	Wallets       []*WalletDao `bun:"rel:has-many,join:id=user_id"`
}

// WalletDao maps to the 'user_wallets' table. A wallet belongs to at most one user.
type WalletDao struct {
	bun.BaseModel `bun:"table:user_wallets,alias:uw"`
	Chain         string    `bun:"chain,pk,type:varchar(16)"`
	Address       string    `bun:"address,pk,type:varchar(128)"`
	UserID        string    `bun:"user_id,notnull,type:varchar(36)"`
	LinkedAt      time.Time `bun:"linked_at,nullzero,notnull,default:current_timestamp"`
}

// toUserDao converts a user.User to UserDao.
func toUserDao(usr *user.User) *UserDao {
	dao := &UserDao{
		ID:        usr.ID,
		CreatedAt: usr.CreatedAt,
		UpdatedAt: usr.UpdatedAt,
	}
	if usr.Username != "" {
		dao.Username = &usr.Username
	}
	if usr.PasswordHash != "" {
		dao.PasswordHash = &usr.PasswordHash
	}
	for _, w := range usr.Wallets {
		dao.Wallets = append(dao.Wallets, &WalletDao{
			Chain:    string(w.Chain),
			Address:  w.Address,
			UserID:   usr.ID,
			LinkedAt: w.LinkedAt,
		})
	}
	return dao
}

// toUser converts a UserDao to user.User.
func toUser(dao *UserDao) *user.User {
	usr := &user.User{
		ID:        dao.ID,
		CreatedAt: dao.CreatedAt,
		UpdatedAt: dao.UpdatedAt,
	}
	if dao.Username != nil {
		usr.Username = *dao.Username
	}
	if dao.PasswordHash != nil {
		usr.PasswordHash = *dao.PasswordHash
	}
	for _, w := range dao.Wallets {
		usr.Wallets = append(usr.Wallets, user.Wallet{
			Chain:    currency.Chain(w.Chain),
			Address:  w.Address,
			LinkedAt: w.LinkedAt,
		})
	}
	return usr
}
