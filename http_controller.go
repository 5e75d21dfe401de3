package identity

import (
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// HTTPController exposes the lifecycle operations as a JSON API
type HTTPController struct {
	Logger   Logger
	Accounts *Accounts
	Avatars  *AvatarPipeline
	Auth     *RouteAuthenticator
	Repo     RepositoryManager
	TmpDir   string
}

type HTTPControllerOption func(*HTTPController) *HTTPController

func NewHTTPController(opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Logger: defLogger{},
		TmpDir: "tmp",
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Accounts == nil {
		panic("Missing Accounts service in identity controller...")
	}

	if c.Auth == nil {
		panic("Missing RouteAuthenticator in identity controller...")
	}

	if c.Avatars == nil {
		panic("Missing AvatarPipeline in identity controller...")
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in identity controller...")
	}

	return c
}

func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Logger = logger
		return c
	}
}

func WithControllerAccounts(accounts *Accounts) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Accounts = accounts
		return c
	}
}

func WithControllerAvatars(avatars *AvatarPipeline) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Avatars = avatars
		return c
	}
}

func WithControllerAuth(auth *RouteAuthenticator) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Auth = auth
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Repo = repo
		return c
	}
}

func WithControllerTmpDir(dir string) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.TmpDir = dir
		return c
	}
}

// RegisterRoutes mounts the identity and contact routes on the app
func (h *HTTPController) RegisterRoutes(app *fiber.App) {
	protected := h.Auth.Protected()

	users := app.Group("/api/users")
	users.Post("/signup", h.SignupPost)
	users.Post("/login", h.LoginPost)
	users.Get("/logout", protected, h.LogoutGet)
	users.Get("/current", protected, h.CurrentGet)
	users.Post("/verify", h.VerifyResendPost)
	users.Get("/verify/:verificationToken", h.VerifyConfirmGet)
	users.Patch("/avatars", protected, h.AvatarsPatch)

	contacts := app.Group("/api/contacts", protected)
	contacts.Get("/", h.ContactsIndex)
	contacts.Get("/:id", h.ContactsShow)
	contacts.Post("/", h.ContactsCreate)
	contacts.Put("/:id", h.ContactsUpdate)
	contacts.Delete("/:id", h.ContactsDelete)
	contacts.Patch("/:id/favorite", h.ContactsFavorite)
}

// SignupPayload is the registration request body
type SignupPayload struct {
	Email        string `json:"email" form:"email"`
	Password     string `json:"password" form:"password"`
	Subscription string `json:"subscription" form:"subscription"`
}

// Validate will run validation rules
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.Subscription, validation.In(
			SubscriptionStarter,
			SubscriptionPro,
			SubscriptionBusiness,
		)),
	)
}

func (h *HTTPController) SignupPost(c *fiber.Ctx) error {
	payload := new(SignupPayload)

	if err := c.BodyParser(payload); err != nil {
		h.Logger.Error("signup parse payload", "error", err)
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		h.Logger.Debug("signup validate payload", "error", err)
		return RenderError(c, err)
	}

	profile, err := h.Accounts.Register(c.UserContext(), payload.Email, payload.Password, payload.Subscription)
	if err != nil {
		h.Logger.Error("signup register", "email", payload.Email, "error", err)
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"email":        profile.Email,
		"subscription": profile.Subscription,
	})
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (h *HTTPController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		h.Logger.Error("login parse payload", "error", err)
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, err)
	}

	token, profile, err := h.Accounts.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"email":        profile.Email,
			"subscription": profile.Subscription,
		},
	})
}

func (h *HTTPController) LogoutGet(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	if err := h.Accounts.Logout(c.UserContext(), user.ID); err != nil {
		return RenderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTPController) CurrentGet(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	profile := h.Accounts.CurrentUser(user)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": fiber.Map{
			"email":        profile.Email,
			"subscription": profile.Subscription,
		},
	})
}

// ResendVerificationPayload is the verification re-send request body
type ResendVerificationPayload struct {
	Email string `json:"email" form:"email"`
}

// Validate will run validation rules
func (r ResendVerificationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("missing required field email"),
			is.Email,
		),
	)
}

func (h *HTTPController) VerifyResendPost(c *fiber.Ctx) error {
	payload := new(ResendVerificationPayload)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, err)
	}

	if err := h.Accounts.RequestVerification(c.UserContext(), payload.Email); err != nil {
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Verification email sent",
	})
}

func (h *HTTPController) VerifyConfirmGet(c *fiber.Ctx) error {
	token := c.Params("verificationToken")

	if err := h.Accounts.ConfirmVerification(c.UserContext(), token); err != nil {
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Verification successful",
	})
}

func (h *HTTPController) AvatarsPatch(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return RenderError(c, goerrors.New("missing avatar file", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	// unique temp name so concurrent uploads sharing a client filename
	// never clobber each other; the original name still rides along for
	// extension handling
	tempPath := filepath.Join(h.TmpDir, uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveFile(file, tempPath); err != nil {
		h.Logger.Error("avatar save temp upload", "error", err)
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to store upload"))
	}

	url, err := h.Avatars.SetAvatar(c.UserContext(), user.ID, tempPath, file.Filename)
	if err != nil {
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"avatarURL": url,
	})
}

// ContactPayload is the contact create/update request body
type ContactPayload struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Favorite bool   `json:"favorite" form:"favorite"`
}

// Validate will run validation rules
func (r ContactPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Phone, validation.Required),
	)
}

// FavoritePayload toggles the favorite flag
type FavoritePayload struct {
	Favorite *bool `json:"favorite" form:"favorite"`
}

// Validate will run validation rules
func (r FavoritePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Favorite, validation.NotNil.Error("missing field favorite")),
	)
}

func (h *HTTPController) ContactsIndex(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	records, err := h.Repo.Contacts().ListByOwner(c.UserContext(), user.ID)
	if err != nil {
		h.Logger.Error("contacts list", "error", err)
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to list contacts"))
	}

	return c.Status(fiber.StatusOK).JSON(records)
}

func (h *HTTPController) ContactsShow(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	record, err := h.Repo.Contacts().GetOwned(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return RenderError(c, contactError(err))
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (h *HTTPController) ContactsCreate(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	payload := new(ContactPayload)
	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, err)
	}

	record, err := h.Repo.Contacts().Create(c.UserContext(), &Contact{
		OwnerID:  user.ID,
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Favorite: payload.Favorite,
	})
	if err != nil {
		h.Logger.Error("contacts create", "error", err)
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to create contact"))
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *HTTPController) ContactsUpdate(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	payload := new(ContactPayload)
	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, err)
	}

	record, err := h.Repo.Contacts().UpdateOwned(c.UserContext(), user.ID, c.Params("id"), &Contact{
		Name:     payload.Name,
		Email:    payload.Email,
		Phone:    payload.Phone,
		Favorite: payload.Favorite,
	})
	if err != nil {
		return RenderError(c, contactError(err))
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func (h *HTTPController) ContactsDelete(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	if err := h.Repo.Contacts().DeleteOwned(c.UserContext(), user.ID, c.Params("id")); err != nil {
		return RenderError(c, contactError(err))
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HTTPController) ContactsFavorite(c *fiber.Ctx) error {
	user, err := UserFromContext(c)
	if err != nil {
		return RenderError(c, err)
	}

	payload := new(FavoritePayload)
	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, err)
	}

	record, err := h.Repo.Contacts().SetFavorite(c.UserContext(), user.ID, c.Params("id"), *payload.Favorite)
	if err != nil {
		return RenderError(c, contactError(err))
	}

	return c.Status(fiber.StatusOK).JSON(record)
}

func contactError(err error) error {
	if repository.IsRecordNotFound(err) {
		return goerrors.New("Not found", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound)
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "contact operation failed")
}
