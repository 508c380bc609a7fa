package store

import "github.com/hazglobal/hazmatgo/internal/models"

// SeedPlaces is the initial known-place catalog. Loaded once into an empty
// places table; operators extend it through the database afterwards.
var SeedPlaces = []models.Place{
	// Gauteng
	{Region: "Gauteng", Area: "Johannesburg", Place: "Sandton", Address: "Sandton, Johannesburg, Gauteng, South Africa", Lat: -26.1076, Lng: 28.0567},
	{Region: "Gauteng", Area: "Johannesburg", Place: "Midrand", Address: "Midrand, Johannesburg, Gauteng, South Africa", Lat: -25.9970, Lng: 28.1260},
	{Region: "Gauteng", Area: "Pretoria", Place: "Hatfield", Address: "Hatfield, Pretoria, Gauteng, South Africa", Lat: -25.7460, Lng: 28.2293},
	{Region: "Gauteng", Area: "Ekurhuleni", Place: "Brakpan", Address: "Brakpan, Ekurhuleni, Gauteng, South Africa", Lat: -26.2560, Lng: 28.3200},
	// Western Cape
	{Region: "Western Cape", Area: "Cape Town", Place: "CBD", Address: "Cape Town City Centre, Western Cape, South Africa", Lat: -33.9249, Lng: 18.4241},
	{Region: "Western Cape", Area: "Cape Town", Place: "Bellville", Address: "Bellville, Cape Town, Western Cape, South Africa", Lat: -33.9020, Lng: 18.6270},
	// KwaZulu-Natal
	{Region: "KwaZulu-Natal", Area: "Durban", Place: "Umhlanga", Address: "Umhlanga, Durban, KwaZulu-Natal, South Africa", Lat: -29.7260, Lng: 31.0686},
	{Region: "KwaZulu-Natal", Area: "Durban", Place: "CBD", Address: "Durban CBD, KwaZulu-Natal, South Africa", Lat: -29.8579, Lng: 31.0292},
	// Eastern Cape
	{Region: "Eastern Cape", Area: "Gqeberha", Place: "Walmer", Address: "Walmer, Gqeberha, Eastern Cape, South Africa", Lat: -33.9806, Lng: 25.5700},
}
