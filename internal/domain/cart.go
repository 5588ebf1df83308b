package domain

import "sort"

// CartData maps product id to size to quantity.
type CartData map[string]map[string]int

// CartLine is one (product, size, quantity) tuple.
type CartLine struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Add increments the quantity for a product size.
func (c CartData) Add(productID, size string, quantity int) {
	if c[productID] == nil {
		c[productID] = map[string]int{}
	}
	c[productID][size] += quantity
}

// Set replaces the quantity for a product size. Zero or less removes the size,
// and a product with no sizes left is dropped.
func (c CartData) Set(productID, size string, quantity int) {
	if quantity <= 0 {
		sizes, ok := c[productID]
		if !ok {
			return
		}
		delete(sizes, size)
		if len(sizes) == 0 {
			delete(c, productID)
		}
		return
	}
	if c[productID] == nil {
		c[productID] = map[string]int{}
	}
	c[productID][size] = quantity
}

// Merge adds every quantity in other to c.
func (c CartData) Merge(other CartData) {
	for productID, sizes := range other {
		for size, qty := range sizes {
			if qty <= 0 {
				continue
			}
			c.Add(productID, size, qty)
		}
	}
}

// Lines flattens the cart into tuples ordered by product id then size.
func (c CartData) Lines() []CartLine {
	lines := make([]CartLine, 0, len(c))
	for productID, sizes := range c {
		for size, qty := range sizes {
			if qty <= 0 {
				continue
			}
			lines = append(lines, CartLine{ProductID: productID, Size: size, Quantity: qty})
		}
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].ProductID != lines[j].ProductID {
			return lines[i].ProductID < lines[j].ProductID
		}
		return lines[i].Size < lines[j].Size
	})
	return lines
}
