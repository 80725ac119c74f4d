package friend

import (
	"context"
	"errors"
	"testing"

	"backend-pettopia/internal/shared/geo"

	"github.com/pashagolub/pgxmock/v3"
)

func TestAcceptedFriendIDs(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT CASE WHEN requester_id=\$1 THEN receiver_id ELSE requester_id END`).
		WithArgs("pet-a").
		WillReturnRows(pgxmock.NewRows([]string{"peer"}).AddRow("pet-b").AddRow("pet-c"))

	svc := NewService(mock)
	ids, err := svc.AcceptedFriendIDs(context.Background(), "pet-a")
	if err != nil {
		t.Fatalf("friend ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "pet-b" || ids[1] != "pet-c" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAcceptedFriendIDsError(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM friendships`).
		WithArgs("pet-a").
		WillReturnError(errFriend)

	if _, err := NewService(mock).AcceptedFriendIDs(context.Background(), "pet-a"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNearbyFiltersAndSorts(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	box := geo.BoundingBox(37.5, 127.0, 1000)
	// the box corner is inside the query envelope but ~1.4 km away
	mock.ExpectQuery(`FROM pet_accounts`).
		WithArgs("pet-a", box.MinLat, box.MaxLat, box.MinLng, box.MaxLng).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "profile_image", "species", "latitude", "longitude"}).
			AddRow("pet-far", "코너", nil, "CAT", box.MaxLat, box.MaxLng).
			AddRow("pet-mid", "보리", nil, "DOG", 37.505, 127.0).
			AddRow("pet-near", "콩이", nil, "DOG", 37.501, 127.0))

	pets, err := NewService(mock).Nearby(context.Background(), "pet-a", 37.5, 127.0, 1)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(pets) != 2 {
		t.Fatalf("expected corner pet to be filtered, got %+v", pets)
	}
	if pets[0].ID != "pet-near" || pets[1].ID != "pet-mid" {
		t.Fatalf("expected closest first, got %s then %s", pets[0].ID, pets[1].ID)
	}
	if pets[0].Distance <= 0 || pets[0].Distance > 0.2 {
		t.Fatalf("unexpected distance in km: %v", pets[0].Distance)
	}
}

func TestNearbyDefaultsRadius(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	box := geo.BoundingBox(37.5, 127.0, DefaultRadiusKm*1000)
	mock.ExpectQuery(`FROM pet_accounts`).
		WithArgs("pet-a", box.MinLat, box.MaxLat, box.MinLng, box.MaxLng).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "profile_image", "species", "latitude", "longitude"}))

	pets, err := NewService(mock).Nearby(context.Background(), "pet-a", 37.5, 127.0, 0)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if pets == nil || len(pets) != 0 {
		t.Fatalf("expected empty non-nil result")
	}
}

func TestNearbyAcrossAntimeridian(t *testing.T) {
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	defer mock.Close()

	box := geo.BoundingBox(-17, 179.99, 5000)
	if !box.Wraps() {
		t.Fatalf("expected wrapped box, got %+v", box)
	}
	mock.ExpectQuery(`longitude BETWEEN \$4 AND 180 OR longitude BETWEEN -180 AND \$5`).
		WithArgs("pet-a", box.MinLat, box.MaxLat, box.MinLng, box.MaxLng).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "profile_image", "species", "latitude", "longitude"}).
			AddRow("pet-east", "바다", nil, "DOG", -17.0, -179.99))

	pets, err := NewService(mock).Nearby(context.Background(), "pet-a", -17, 179.99, 5)
	if err != nil {
		t.Fatalf("nearby: %v", err)
	}
	if len(pets) != 1 || pets[0].ID != "pet-east" {
		t.Fatalf("expected neighbour across the antimeridian, got %+v", pets)
	}
	if pets[0].Distance > 2.5 {
		t.Fatalf("unexpected distance in km: %v", pets[0].Distance)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

var errFriend = errors.New("friend error")
