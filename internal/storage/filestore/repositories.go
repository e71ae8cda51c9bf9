package filestore

import (
	"context"
	"fmt"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
)

type productRepository struct{ s *Store }

func (r *productRepository) List(ctx context.Context) ([]entities.Product, error) {
	var out []entities.Product
	r.s.view(func(d *document) {
		out = newestFirst(d.Products, func(p entities.Product) time.Time { return p.CreatedAt })
	})
	return out, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (entities.Product, error) {
	var (
		product entities.Product
		err     = repositories.ErrNotFound
	)
	r.s.view(func(d *document) {
		if i := productIndex(d, "id", id); i >= 0 {
			product, err = d.Products[i], nil
		}
	})
	return product, err
}

func (r *productRepository) Create(ctx context.Context, product entities.Product) (entities.Product, error) {
	entities.StampNew(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	err := r.s.mutate(func(d *document) error {
		d.Products = append(d.Products, product)
		return nil
	})
	if err != nil {
		return entities.Product{}, err
	}
	return product, nil
}

func (r *productRepository) Update(ctx context.Context, id string, dto entities.UpdateProductDTO) (entities.Product, error) {
	if dto.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	var updated entities.Product
	err := r.s.mutate(func(d *document) error {
		i := productIndex(d, "id", id)
		if i < 0 {
			return repositories.ErrNotFound
		}
		dto.Apply(&d.Products[i])
		d.Products[i].UpdatedAt = entities.Now()
		updated = d.Products[i]
		return nil
	})
	return updated, err
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.s.mutate(func(d *document) error {
		i := productIndex(d, "id", id)
		if i < 0 {
			return repositories.ErrNotFound
		}
		d.Products = append(d.Products[:i:i], d.Products[i+1:]...)
		return nil
	})
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	var n int
	r.s.view(func(d *document) { n = len(d.Products) })
	return n, nil
}

func productIndex(d *document, column, value string) int {
	return indexOf(d.Products, func(p entities.Product) bool {
		if column == "product_code" {
			return p.ProductCode == value
		}
		return p.ID == value
	})
}

type taskRepository struct{ s *Store }

func (r *taskRepository) List(ctx context.Context) ([]entities.Task, error) {
	var out []entities.Task
	r.s.view(func(d *document) {
		out = newestFirst(d.Tasks, func(t entities.Task) time.Time { return t.CreatedAt })
	})
	return out, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (entities.Task, error) {
	var (
		task entities.Task
		err  = repositories.ErrNotFound
	)
	r.s.view(func(d *document) {
		if i := taskIndex(d, id); i >= 0 {
			task, err = d.Tasks[i], nil
		}
	})
	return task, err
}

func (r *taskRepository) Create(ctx context.Context, task entities.Task) (entities.Task, error) {
	entities.StampNew(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if task.Status == "" {
		task.Status = entities.TaskStatusPending
	}
	err := r.s.mutate(func(d *document) error {
		d.Tasks = append(d.Tasks, task)
		return nil
	})
	if err != nil {
		return entities.Task{}, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, dto entities.UpdateTaskDTO) (entities.Task, error) {
	if dto.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	var updated entities.Task
	err := r.s.mutate(func(d *document) error {
		i := taskIndex(d, id)
		if i < 0 {
			return repositories.ErrNotFound
		}
		dto.Apply(&d.Tasks[i])
		d.Tasks[i].UpdatedAt = entities.Now()
		updated = d.Tasks[i]
		return nil
	})
	return updated, err
}

func (r *taskRepository) Count(ctx context.Context) (int, error) {
	var n int
	r.s.view(func(d *document) { n = len(d.Tasks) })
	return n, nil
}

// Archive 写入历史记录并删除任务，两者在同一次写盘中生效
func (r *taskRepository) Archive(ctx context.Context, id string, completedAt time.Time) (entities.History, error) {
	var history entities.History
	err := r.s.mutate(func(d *document) error {
		i := taskIndex(d, id)
		if i < 0 {
			return repositories.ErrNotFound
		}

		history = entities.ArchiveOf(d.Tasks[i], completedAt.UTC())
		if indexOf(d.History, func(h entities.History) bool { return h.ID == id }) < 0 {
			d.History = append(d.History, history)
		}
		d.Tasks = append(d.Tasks[:i:i], d.Tasks[i+1:]...)
		return nil
	})
	return history, err
}

// Ship 扣减库存并更新任务状态，库存不足时不做任何修改
func (r *taskRepository) Ship(ctx context.Context, id string, status string) (entities.Task, error) {
	var shipped entities.Task
	err := r.s.mutate(func(d *document) error {
		i := taskIndex(d, id)
		if i < 0 {
			return repositories.ErrNotFound
		}

		lines, err := d.Tasks[i].Items.Lines()
		if err != nil {
			return err
		}

		demand := make(map[int]int)
		var order []int
		for _, line := range lines {
			column, value := line.Ref()
			if column == "" || line.Quantity <= 0 {
				continue
			}
			p := productIndex(d, column, value)
			if p < 0 {
				continue
			}
			if _, ok := demand[p]; !ok {
				order = append(order, p)
			}
			demand[p] += line.Quantity
		}

		now := entities.Now()
		for _, p := range order {
			if d.Products[p].Quantity < demand[p] {
				return fmt.Errorf("%w: 商品%s", repositories.ErrInsufficientStock, d.Products[p].ID)
			}
			d.Products[p].Quantity -= demand[p]
			d.Products[p].UpdatedAt = now
		}

		d.Tasks[i].Status = status
		d.Tasks[i].UpdatedAt = now
		shipped = d.Tasks[i]
		return nil
	})
	return shipped, err
}

func taskIndex(d *document, id string) int {
	return indexOf(d.Tasks, func(t entities.Task) bool { return t.ID == id })
}

type historyRepository struct{ s *Store }

func (r *historyRepository) List(ctx context.Context) ([]entities.History, error) {
	var out []entities.History
	r.s.view(func(d *document) {
		out = newestFirst(d.History, func(h entities.History) time.Time { return h.CreatedAt })
	})
	return out, nil
}

func (r *historyRepository) FindByID(ctx context.Context, id string) (entities.History, error) {
	var (
		history entities.History
		err     = repositories.ErrNotFound
	)
	r.s.view(func(d *document) {
		if i := indexOf(d.History, func(h entities.History) bool { return h.ID == id }); i >= 0 {
			history, err = d.History[i], nil
		}
	})
	return history, err
}

func (r *historyRepository) Create(ctx context.Context, history entities.History) (entities.History, error) {
	entities.StampNew(&history.ID, &history.CreatedAt, &history.UpdatedAt)
	if history.CompletedAt.IsZero() {
		history.CompletedAt = history.CreatedAt
	}
	err := r.s.mutate(func(d *document) error {
		d.History = append(d.History, history)
		return nil
	})
	if err != nil {
		return entities.History{}, err
	}
	return history, nil
}

func (r *historyRepository) Count(ctx context.Context) (int, error) {
	var n int
	r.s.view(func(d *document) { n = len(d.History) })
	return n, nil
}

type activityRepository struct{ s *Store }

func (r *activityRepository) List(ctx context.Context) ([]entities.Activity, error) {
	var out []entities.Activity
	r.s.view(func(d *document) {
		out = newestFirst(d.Activities, func(a entities.Activity) time.Time { return a.CreatedAt })
	})
	return out, nil
}

func (r *activityRepository) Create(ctx context.Context, activity entities.Activity) (entities.Activity, error) {
	updatedAt := activity.CreatedAt
	entities.StampNew(&activity.ID, &activity.CreatedAt, &updatedAt)
	err := r.s.mutate(func(d *document) error {
		d.Activities = append(d.Activities, activity)
		return nil
	})
	if err != nil {
		return entities.Activity{}, err
	}
	return activity, nil
}

func (r *activityRepository) Count(ctx context.Context) (int, error) {
	var n int
	r.s.view(func(d *document) { n = len(d.Activities) })
	return n, nil
}

type userRepository struct{ s *Store }

func (r *userRepository) List(ctx context.Context) ([]entities.User, error) {
	var out []entities.User
	r.s.view(func(d *document) {
		out = make([]entities.User, 0, len(d.Users))
		for _, rec := range d.Users {
			out = append(out, rec.user())
		}
	})
	return newestFirst(out, func(u entities.User) time.Time { return u.CreatedAt }), nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (entities.User, error) {
	return r.findBy(func(u userRecord) bool { return u.ID == id })
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (entities.User, error) {
	return r.findBy(func(u userRecord) bool { return u.Email == email })
}

func (r *userRepository) findBy(match func(userRecord) bool) (entities.User, error) {
	var (
		user entities.User
		err  = repositories.ErrNotFound
	)
	r.s.view(func(d *document) {
		if i := indexOf(d.Users, match); i >= 0 {
			user, err = d.Users[i].user(), nil
		}
	})
	return user, err
}

func (r *userRepository) Create(ctx context.Context, user entities.User) (entities.User, error) {
	entities.StampNew(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if user.Settings == nil {
		user.Settings = entities.Settings{}
	}
	err := r.s.mutate(func(d *document) error {
		if indexOf(d.Users, func(u userRecord) bool { return u.Email == user.Email }) >= 0 {
			return repositories.ErrEmailExists
		}
		d.Users = append(d.Users, userRecord{User: user, PasswordHash: user.Password})
		return nil
	})
	if err != nil {
		return entities.User{}, err
	}
	return user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id string, dto entities.UpdateProfileDTO) (entities.User, error) {
	if len(dto.Fields()) == 0 {
		return r.FindByID(ctx, id)
	}

	var updated entities.User
	err := r.s.mutate(func(d *document) error {
		i := indexOf(d.Users, func(u userRecord) bool { return u.ID == id })
		if i < 0 {
			return repositories.ErrNotFound
		}
		dto.Apply(&d.Users[i].User)
		d.Users[i].UpdatedAt = entities.Now()
		updated = d.Users[i].user()
		return nil
	})
	return updated, err
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.s.mutate(func(d *document) error {
		i := indexOf(d.Users, func(u userRecord) bool { return u.ID == id })
		if i < 0 {
			return repositories.ErrNotFound
		}
		at := at.UTC()
		d.Users[i].LastLogin = &at
		return nil
	})
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	r.s.view(func(d *document) { n = len(d.Users) })
	return n, nil
}

// user 还原出带密码哈希的用户实体
func (u userRecord) user() entities.User {
	user := u.User
	user.Password = u.PasswordHash
	return user
}
