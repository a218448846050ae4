package server

import (
	"strings"
	"sync"
)

// User is a user record.
type User struct {
	ID            int    `json:"id"`
	Nombre        string `json:"nombre"`
	Email         string `json:"email"`
	Activo        bool   `json:"activo"`
	FechaCreacion string `json:"fechaCreacion,omitempty"`
}

// Product is a product record.
type Product struct {
	ID            int     `json:"id"`
	Nombre        string  `json:"nombre"`
	Precio        float64 `json:"precio"`
	Categoria     string  `json:"categoria"`
	Stock         int     `json:"stock"`
	FechaCreacion string  `json:"fechaCreacion,omitempty"`
}

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	Categoria string
	PrecioMin *float64
	PrecioMax *float64
}

func (f ProductFilter) match(p Product) bool {
	if f.Categoria != "" && !strings.EqualFold(f.Categoria, p.Categoria) {
		return false
	}
	if f.PrecioMin != nil && p.Precio < *f.PrecioMin {
		return false
	}
	if f.PrecioMax != nil && p.Precio > *f.PrecioMax {
		return false
	}
	return true
}

// Store holds users and products in memory.
type Store struct {
	mu       sync.RWMutex
	users    []User
	products []Product
}

// NewStore creates a store with the demo seed data.
func NewStore() *Store {
	return &Store{
		users: []User{
			{ID: 1, Nombre: "Juan Pérez", Email: "juan@example.com", Activo: true},
			{ID: 2, Nombre: "María García", Email: "maria@example.com", Activo: true},
		},
		products: []Product{
			{ID: 1, Nombre: "Laptop", Precio: 999.99, Categoria: "Electrónicos", Stock: 10},
			{ID: 2, Nombre: "Mouse", Precio: 25.5, Categoria: "Accesorios", Stock: 50},
			{ID: 3, Nombre: "Teclado", Precio: 75, Categoria: "Accesorios", Stock: 30},
		},
	}
}

// Users returns a copy of all users.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, len(s.users))
	copy(out, s.users)
	return out
}

// AddUser assigns the next ID to u and stores it.
func (s *Store) AddUser(u User) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID = len(s.users) + 1
	s.users = append(s.users, u)
	return u
}

// Products returns the products matching f.
func (s *Store) Products(f ProductFilter) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if f.match(p) {
			out = append(out, p)
		}
	}
	return out
}

// AddProduct assigns the next ID to p and stores it.
func (s *Store) AddProduct(p Product) Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = len(s.products) + 1
	s.products = append(s.products, p)
	return p
}
