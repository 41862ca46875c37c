package repository

import (
	"github.com/hasinichitrada/LIBSHARE/internal/model"
)

// DefaultCatalog is the demo catalog loaded when no other seed is supplied.
func DefaultCatalog() []model.Book {
	return []model.Book{
		{Title: "Data Structures and Algorithms", Subject: "CS", Author: "N. Karumanchi", TotalCopies: 5, AvailableCopies: 2},
		{Title: "Engineering Thermodynamics", Subject: "ME", Author: "P.K. Nag", TotalCopies: 3, AvailableCopies: 3},
		{Title: "Organic Chemistry", Subject: "CH", Author: "Morrison Boyd", TotalCopies: 2, AvailableCopies: 1},
		{Title: "Microelectronic Circuits", Subject: "EE", Author: "Sedra & Smith", TotalCopies: 4, AvailableCopies: 0},
	}
}
