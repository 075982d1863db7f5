package stub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/powerzone/gymclient/internal/domain"
)

var (
	ErrUnauthorized    = errors.New("invalid token")
	ErrProductNotFound = errors.New("Product not found")
	ErrOutOfStock      = errors.New("Out of stock")
	ErrLineNotFound    = errors.New("Cart item not found")
	ErrSessionNotFound = errors.New("Session not found")
	ErrSessionFull     = errors.New("Session is full")
	ErrAlreadyBooked   = errors.New("Session already in cart")
)

// Repo is the stub backend's data access layer.
type Repo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepo(db *sql.DB, logger *zap.Logger) *Repo {
	return &Repo{
		db:     db,
		logger: logger,
	}
}

// CreateToken stores a bcrypt hash of the bearer token for userName and
// returns the new user id.
func (r *Repo) CreateToken(ctx context.Context, userName, token string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), 10)
	if err != nil {
		return 0, fmt.Errorf("failed to hash token: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (user_name, token_hash, is_active) VALUES (?, ?, 1)`,
		userName, string(hash))
	if err != nil {
		return 0, fmt.Errorf("failed to insert token: %w", err)
	}
	return res.LastInsertId()
}

// UserIDForToken resolves a bearer token to its user id. Bcrypt hashes are
// salted, so there is no direct lookup; active tokens are verified one by
// one. Fine for a dev stub.
func (r *Repo) UserIDForToken(ctx context.Context, token string) (int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, token_hash FROM tokens WHERE is_active = 1`)
	if err != nil {
		r.logger.Error("Failed to query tokens", zap.Error(err))
		return 0, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var hash string
		if err := rows.Scan(&id, &hash); err != nil {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil {
			return id, nil
		}
	}
	return 0, ErrUnauthorized
}

// GetCart builds the product cart snapshot. Line totals and cart totals
// are computed here; the client treats them as authoritative.
func (r *Repo) GetCart(ctx context.Context, userID int64) (*domain.CartSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, p.id, p.name, p.image, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = ?
		ORDER BY ci.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &domain.CartSnapshot{Items: []domain.CartLine{}}
	for rows.Next() {
		var line domain.CartLine
		var image sql.NullString
		if err := rows.Scan(&line.ID, &line.ProductID, &line.ProductName, &image, &line.Price, &line.Quantity); err != nil {
			return nil, err
		}
		if image.Valid {
			line.ProductImage = &image.String
		}
		line.ItemTotal = line.Price * float64(line.Quantity)
		snap.TotalItems += line.Quantity
		snap.TotalPrice += line.ItemTotal
		snap.Items = append(snap.Items, line)
	}
	return snap, rows.Err()
}

// AddCartItem adds a product or increments its existing line, checking
// stock against the resulting quantity.
func (r *Repo) AddCartItem(ctx context.Context, userID, productID int64, quantity int) error {
	var stock int
	err := r.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}

	var current int
	err = r.db.QueryRowContext(ctx,
		`SELECT quantity FROM cart_items WHERE user_id = ? AND product_id = ?`,
		userID, productID).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if current+quantity > stock {
		return ErrOutOfStock
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity
	`, userID, productID, quantity)
	return err
}

// UpdateCartItem sets the quantity of an existing line.
func (r *Repo) UpdateCartItem(ctx context.Context, userID, lineID int64, quantity int) error {
	var productID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT product_id FROM cart_items WHERE id = ? AND user_id = ?`,
		lineID, userID).Scan(&productID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrLineNotFound
	}
	if err != nil {
		return err
	}

	var stock int
	if err := r.db.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock); err != nil {
		return err
	}
	if quantity > stock {
		return ErrOutOfStock
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ? WHERE id = ? AND user_id = ?`,
		quantity, lineID, userID)
	return err
}

// RemoveCartItem deletes a line.
func (r *Repo) RemoveCartItem(ctx context.Context, userID, lineID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = ? AND user_id = ?`, lineID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLineNotFound
	}
	return nil
}

// GetSessionCart builds the session booking cart snapshot.
func (r *Repo) GetSessionCart(ctx context.Context, userID int64) (*domain.SessionCartSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT sci.id, s.id, s.class_type, s.trainer_name, s.date, s.start_time, s.end_time, s.price
		FROM session_cart_items sci
		JOIN sessions s ON s.id = sci.session_id
		WHERE sci.user_id = ?
		ORDER BY sci.id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := &domain.SessionCartSnapshot{Items: []domain.SessionCartLine{}}
	for rows.Next() {
		var line domain.SessionCartLine
		if err := rows.Scan(&line.CartItemID, &line.SessionID, &line.ClassType, &line.TrainerName,
			&line.Date, &line.StartTime, &line.EndTime, &line.Price); err != nil {
			return nil, err
		}
		snap.TotalItems++
		snap.TotalPrice += line.Price
		snap.Items = append(snap.Items, line)
	}
	return snap, rows.Err()
}

// AddSessionItem books a session, enforcing capacity and the one-booking-
// per-session rule, and returns the created line.
func (r *Repo) AddSessionItem(ctx context.Context, userID, sessionID int64) (*domain.SessionCartLine, error) {
	var line domain.SessionCartLine
	var capacity int
	err := r.db.QueryRowContext(ctx, `
		SELECT id, class_type, trainer_name, date, start_time, end_time, price, capacity
		FROM sessions WHERE id = ?
	`, sessionID).Scan(&line.SessionID, &line.ClassType, &line.TrainerName, &line.Date,
		&line.StartTime, &line.EndTime, &line.Price, &capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var booked int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM session_cart_items WHERE session_id = ?`, sessionID).Scan(&booked); err != nil {
		return nil, err
	}
	if booked >= capacity {
		return nil, ErrSessionFull
	}

	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM session_cart_items WHERE user_id = ? AND session_id = ?`,
		userID, sessionID).Scan(&exists)
	if err == nil {
		return nil, ErrAlreadyBooked
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO session_cart_items (user_id, session_id) VALUES (?, ?)`,
		userID, sessionID)
	if err != nil {
		return nil, err
	}
	line.CartItemID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// RemoveSessionItem removes one booked session.
func (r *Repo) RemoveSessionItem(ctx context.Context, userID, cartItemID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM session_cart_items WHERE id = ? AND user_id = ?`, cartItemID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLineNotFound
	}
	return nil
}

// ClearSessionCart empties the user's session cart.
func (r *Repo) ClearSessionCart(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM session_cart_items WHERE user_id = ?`, userID)
	return err
}

// ListProducts returns the shop catalog.
func (r *Repo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, image, price, stock, rating, rating_count
		FROM products ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var image sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &image, &p.Price, &p.Stock, &p.Rating, &p.RatingCount); err != nil {
			return nil, err
		}
		if image.Valid {
			p.Image = &image.String
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListEquipment returns the equipment catalog.
func (r *Repo) ListEquipment(ctx context.Context) ([]domain.Equipment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, description, image FROM equipment ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Equipment
	for rows.Next() {
		var e domain.Equipment
		var image sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &e.Description, &image); err != nil {
			return nil, err
		}
		if image.Valid {
			e.Image = &image.String
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// ListSessions returns bookable sessions with their current booked count.
func (r *Repo) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.class_type, s.trainer_name, s.date, s.start_time, s.end_time, s.price, s.capacity,
			(SELECT COUNT(*) FROM session_cart_items sci WHERE sci.session_id = s.id)
		FROM sessions s ORDER BY s.date, s.start_time
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.ClassType, &s.TrainerName, &s.Date, &s.StartTime, &s.EndTime,
			&s.Price, &s.Capacity, &s.Booked); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// AddRating folds one star rating into the product's running average.
func (r *Repo) AddRating(ctx context.Context, productID int64, stars int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET rating = (rating * rating_count + ?) / (rating_count + 1),
			rating_count = rating_count + 1
		WHERE id = ?
	`, stars, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrProductNotFound
	}
	return nil
}
