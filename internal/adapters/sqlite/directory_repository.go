package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/actionlog/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type domainModel struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UUID      string     `gorm:"column:uuid;not null"`
	Name      string     `gorm:"column:name;not null"`
	Path      string     `gorm:"column:path;not null"`
	Removed   *time.Time `gorm:"column:removed"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
}

func (domainModel) TableName() string {
	return "domains"
}

type accountModel struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UUID      string     `gorm:"column:uuid;not null"`
	Name      string     `gorm:"column:name;not null"`
	DomainID  int64      `gorm:"column:domain_id;not null"`
	Removed   *time.Time `gorm:"column:removed"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
}

func (accountModel) TableName() string {
	return "accounts"
}

type userModel struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	UUID      string     `gorm:"column:uuid;not null"`
	Name      string     `gorm:"column:name;not null"`
	AccountID int64      `gorm:"column:account_id;not null"`
	Removed   *time.Time `gorm:"column:removed"`
	CreatedAt time.Time  `gorm:"column:created_at;not null"`
}

func (userModel) TableName() string {
	return "users"
}

// DirectoryRepository is the sqlite-backed store of domains, accounts and
// users. Deletes only stamp the removed column; removed rows stay resolvable
// through the IncludingRemoved lookups so old audit entries keep their
// meaning.
type DirectoryRepository struct {
	db *gormsqlite.DB
}

func NewDirectoryRepository(db *gormsqlite.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

func (r *DirectoryRepository) FindDomainByID(ctx context.Context, id int64) (domain.Domain, error) {
	return r.findDomain(ctx, "id = ? AND removed IS NULL", id)
}

func (r *DirectoryRepository) FindDomainByIDIncludingRemoved(ctx context.Context, id int64) (domain.Domain, error) {
	return r.findDomain(ctx, "id = ?", id)
}

func (r *DirectoryRepository) FindDomainByUUIDIncludingRemoved(ctx context.Context, uid string) (domain.Domain, error) {
	return r.findDomain(ctx, "uuid = ?", uid)
}

func (r *DirectoryRepository) findDomain(ctx context.Context, cond string, arg any) (domain.Domain, error) {
	var model domainModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where(cond, arg).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Domain{}, domain.ErrNotFound
		}
		return domain.Domain{}, fmt.Errorf("find domain: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) CreateDomain(ctx context.Context, d domain.Domain) (domain.Domain, error) {
	model := domainModel{
		UUID:      uuid.NewString(),
		Name:      d.Name,
		Path:      d.Path,
		CreatedAt: time.Now().UTC(),
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Domain{}, fmt.Errorf("insert domain: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) RenameDomain(ctx context.Context, id int64, name string) (domain.Domain, error) {
	var model domainModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Where("id = ? AND removed IS NULL", id).First(&model).Error; err != nil {
			return err
		}
		model.Name = name
		return tx.Save(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Domain{}, domain.ErrNotFound
		}
		return domain.Domain{}, fmt.Errorf("rename domain: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) RemoveDomain(ctx context.Context, id int64) (bool, error) {
	return r.softDelete(ctx, &domainModel{}, id)
}

func (r *DirectoryRepository) FindAccountByID(ctx context.Context, id int64) (domain.Account, error) {
	return r.findAccount(ctx, "id = ? AND removed IS NULL", id)
}

func (r *DirectoryRepository) FindAccountByIDIncludingRemoved(ctx context.Context, id int64) (domain.Account, error) {
	return r.findAccount(ctx, "id = ?", id)
}

func (r *DirectoryRepository) FindAccountByUUIDIncludingRemoved(ctx context.Context, uid string) (domain.Account, error) {
	return r.findAccount(ctx, "uuid = ?", uid)
}

func (r *DirectoryRepository) findAccount(ctx context.Context, cond string, arg any) (domain.Account, error) {
	var model accountModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where(cond, arg).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	model := accountModel{
		UUID:      uuid.NewString(),
		Name:      a.Name,
		DomainID:  a.DomainID,
		CreatedAt: time.Now().UTC(),
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) RenameAccount(ctx context.Context, id int64, name string) (domain.Account, error) {
	var model accountModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Where("id = ? AND removed IS NULL", id).First(&model).Error; err != nil {
			return err
		}
		model.Name = name
		return tx.Save(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrNotFound
		}
		return domain.Account{}, fmt.Errorf("rename account: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) RemoveAccount(ctx context.Context, id int64) (bool, error) {
	return r.softDelete(ctx, &accountModel{}, id)
}

func (r *DirectoryRepository) FindUserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.findUser(ctx, "id = ? AND removed IS NULL", id)
}

func (r *DirectoryRepository) FindUserByIDIncludingRemoved(ctx context.Context, id int64) (domain.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *DirectoryRepository) FindUserByUUIDIncludingRemoved(ctx context.Context, uid string) (domain.User, error) {
	return r.findUser(ctx, "uuid = ?", uid)
}

func (r *DirectoryRepository) findUser(ctx context.Context, cond string, arg any) (domain.User, error) {
	var model userModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where(cond, arg).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	model := userModel{
		UUID:      uuid.NewString(),
		Name:      u.Name,
		AccountID: u.AccountID,
		CreatedAt: time.Now().UTC(),
	}
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) RenameUser(ctx context.Context, id int64, name string) (domain.User, error) {
	var model userModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		if err := tx.Where("id = ? AND removed IS NULL", id).First(&model).Error; err != nil {
			return err
		}
		model.Name = name
		return tx.Save(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("rename user: %w", err)
	}
	return model.toDomain(), nil
}

func (r *DirectoryRepository) RemoveUser(ctx context.Context, id int64) (bool, error) {
	return r.softDelete(ctx, &userModel{}, id)
}

func (r *DirectoryRepository) softDelete(ctx context.Context, model any, id int64) (bool, error) {
	removed := false
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(model).
			Where("id = ? AND removed IS NULL", id).
			Update("removed", time.Now().UTC())
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("remove row: %w", err)
	}
	return removed, nil
}

func (m domainModel) toDomain() domain.Domain {
	return domain.Domain{
		ID:        m.ID,
		UUID:      m.UUID,
		Name:      m.Name,
		Path:      m.Path,
		Removed:   m.Removed,
		CreatedAt: m.CreatedAt,
	}
}

func (m accountModel) toDomain() domain.Account {
	return domain.Account{
		ID:        m.ID,
		UUID:      m.UUID,
		Name:      m.Name,
		DomainID:  m.DomainID,
		Removed:   m.Removed,
		CreatedAt: m.CreatedAt,
	}
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:        m.ID,
		UUID:      m.UUID,
		Name:      m.Name,
		AccountID: m.AccountID,
		Removed:   m.Removed,
		CreatedAt: m.CreatedAt,
	}
}
