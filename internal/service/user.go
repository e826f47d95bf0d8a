package service

import (
	"context"
	"errors"

	"github.com/atinyakov/sneakvault/internal/models"
	"github.com/atinyakov/sneakvault/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines the persistence operations on accounts.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Update keeps the stored hash when u.PasswordHash is empty.
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id int64) error
}

// RegisterInput is the public sign-up form.
type RegisterInput struct {
	Username        string `validate:"required,min=3,max=50" label:"Username"`
	Email           string `validate:"required,email,max=255" label:"Email"`
	Password        string `validate:"required,min=6,bcrypt" label:"Password"`
	ConfirmPassword string `validate:"eqfield=Password" msg:"Passwords do not match."`
}

// UserInput is the admin account form. Password may be empty on update.
type UserInput struct {
	Username string      `validate:"required,min=3,max=50" label:"Username"`
	Email    string      `validate:"required,email,max=255" label:"Email"`
	Password string      `validate:"omitempty,min=6,bcrypt" label:"Password"`
	Role     models.Role `validate:"required,oneof=admin user" label:"Role"`
}

// UserList is the admin account listing.
type UserList struct {
	Users  []models.User
	Admins int
	Others int
}

// UserService implements registration, login and account administration.
type UserService struct {
	repo UserRepository
	cost int
}

// NewUserService constructs a UserService.
func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo, cost: bcrypt.DefaultCost}
}

// Register creates a regular account. Validation problems and taken
// usernames or emails come back as validation.Errors.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if errs := validation.Validate(in); !errs.Empty() {
		return nil, errs
	}
	return s.create(ctx, in.Username, in.Email, in.Password, models.RoleUser)
}

// Create adds an account with the chosen role.
func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	errs := validation.Validate(in)
	if in.Password == "" {
		errs.Add("Password is required.")
	}
	if !errs.Empty() {
		return nil, errs
	}
	return s.create(ctx, in.Username, in.Email, in.Password, in.Role)
}

func (s *UserService) create(ctx context.Context, username, email, password string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: username, Email: email, PasswordHash: hash, Role: role}

	id, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, duplicateUser(err)
	}
	u.ID = id
	return u, nil
}

// Authenticate checks a username and password pair. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, validation.Errors{"Username and password are required."}
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Update edits an account; an empty password keeps the current one.
func (s *UserService) Update(ctx context.Context, id int64, in UserInput) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if errs := validation.Validate(in); !errs.Empty() {
		return errs
	}

	u := &models.User{ID: id, Username: in.Username, Email: in.Email, Role: in.Role}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return duplicateUser(err)
	}
	return nil
}

// Delete removes account id on behalf of actorID, who may not delete
// themselves.
func (s *UserService) Delete(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, id)
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

// List returns every account with role tallies.
func (s *UserService) List(ctx context.Context) (UserList, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return UserList{}, err
	}
	list := UserList{Users: users}
	for _, u := range users {
		if u.Role == models.RoleAdmin {
			list.Admins++
		} else {
			list.Others++
		}
	}
	return list, nil
}

func duplicateUser(err error) error {
	switch field, _ := duplicateField(err); field {
	case "username":
		return validation.Errors{"Username is already taken."}
	case "email":
		return validation.Errors{"Email is already registered."}
	}
	return err
}
