package repository

import (
	"context"
	"errors"
	"strconv"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/comparador/internal/domain/model"
	"github.com/okian/comparador/internal/domain/types"
)

// shiftingReader simulates rows inserted ahead of the cursor between two
// page reads: the second page repeats the last row of the first.
type shiftingReader struct {
	rows  []model.CompetitorListing
	calls int
}

func (r *shiftingReader) CompetitorPage(_ context.Context, _ CompetitorFilter, offset, limit int) ([]model.CompetitorListing, error) {
	r.calls++
	if r.calls > 1 && offset > 0 {
		offset--
	}
	if offset >= len(r.rows) {
		return nil, nil
	}
	end := min(offset+limit, len(r.rows))
	return r.rows[offset:end], nil
}

// failingReader serves full pages until failAt, then returns err.
type failingReader struct {
	failAt int
	err    error
	calls  int
}

func (r *failingReader) CompetitorPage(_ context.Context, _ CompetitorFilter, offset, limit int) ([]model.CompetitorListing, error) {
	r.calls++
	if r.calls >= r.failAt {
		return nil, r.err
	}
	page := make([]model.CompetitorListing, 0, limit)
	for i := range limit {
		page = append(page, listing(strconv.Itoa(offset+i)))
	}
	return page, nil
}

func listing(id string) model.CompetitorListing {
	return model.CompetitorListing{ID: id, Status: types.StatusActive}
}

func TestLoadCompetitors(t *testing.T) {
	Convey("Given a reader whose pages overlap", t, func() {
		r := &shiftingReader{rows: []model.CompetitorListing{
			listing("1"), listing("2"), listing("3"), listing("4"), listing("5"),
		}}

		all, err := LoadCompetitors(context.Background(), r, CompetitorFilter{}, 2)

		Convey("Then every listing is returned exactly once", func() {
			So(err, ShouldBeNil)
			ids := make([]string, 0, len(all))
			for _, l := range all {
				ids = append(ids, l.ID)
			}
			So(ids, ShouldResemble, []string{"1", "2", "3", "4", "5"})
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := LoadCompetitors(ctx, NewMemoryStore(nil, nil), CompetitorFilter{}, 10)

		Convey("Then loading stops with the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(errors.Is(err, ErrUpstreamRead), ShouldBeTrue)
		})
	})

	Convey("Given a reader that fails on the second page", t, func() {
		r := &failingReader{failAt: 2, err: errors.New("connection reset")}

		all, err := LoadCompetitors(context.Background(), r, CompetitorFilter{}, 3)

		Convey("Then the first page is discarded with the error", func() {
			So(all, ShouldBeNil)
			So(errors.Is(err, ErrUpstreamRead), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "connection reset")
			So(r.calls, ShouldEqual, 2)
		})
	})

	Convey("Given an invalid page size", t, func() {
		_, err := LoadCompetitors(context.Background(), NewMemoryStore(nil, nil), CompetitorFilter{}, -1)

		Convey("Then the error is an upstream read failure", func() {
			So(errors.Is(err, ErrInvalidPageSize), ShouldBeTrue)
			So(errors.Is(err, ErrUpstreamRead), ShouldBeTrue)
		})
	})

	Convey("Given listings without any identity", t, func() {
		anon := model.CompetitorListing{Source: "coches.net", Status: types.StatusActive}
		m := NewMemoryStore(nil, []model.CompetitorListing{anon, anon, anon, listing("1"), listing("1")})

		all, err := LoadCompetitors(context.Background(), m, CompetitorFilter{}, 10)

		Convey("Then each of them is kept and identified repeats are still dropped", func() {
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 4)
		})
	})
}

func TestPages(t *testing.T) {
	Convey("Given five eligible listings read two at a time", t, func() {
		m := NewMemoryStore(nil, []model.CompetitorListing{
			listing("1"), listing("2"), listing("3"), listing("4"), listing("5"),
		})

		var sizes []int
		for page, err := range Pages(context.Background(), m, CompetitorFilter{}, 2) {
			So(err, ShouldBeNil)
			sizes = append(sizes, len(page))
		}

		Convey("Then iteration stops after the short page", func() {
			So(sizes, ShouldResemble, []int{2, 2, 1})
		})
	})

	Convey("Given four listings read two at a time", t, func() {
		m := NewMemoryStore(nil, []model.CompetitorListing{
			listing("1"), listing("2"), listing("3"), listing("4"),
		})

		var sizes []int
		var errs []error
		for page, err := range Pages(context.Background(), m, CompetitorFilter{}, 2) {
			if err != nil {
				errs = append(errs, err)
			}
			sizes = append(sizes, len(page))
		}

		Convey("Then the trailing empty page ends iteration cleanly", func() {
			So(errs, ShouldBeEmpty)
			So(sizes, ShouldResemble, []int{2, 2, 0})
		})

		Convey("Then loading returns every listing", func() {
			all, err := LoadCompetitors(context.Background(), m, CompetitorFilter{}, 2)
			So(err, ShouldBeNil)
			So(all, ShouldHaveLength, 4)
		})
	})

	Convey("Given an invalid page size", t, func() {
		var got error
		for _, err := range Pages(context.Background(), NewMemoryStore(nil, nil), CompetitorFilter{}, 0) {
			got = err
		}

		Convey("Then a single error is yielded", func() {
			So(errors.Is(got, ErrInvalidPageSize), ShouldBeTrue)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		sold := listing("9")
		sold.Status = types.StatusSold
		other := listing("7")
		other.Source = "ditec"
		m := NewMemoryStore(
			[]model.StockVehicle{{ID: "v1"}, {ID: "v2"}},
			[]model.CompetitorListing{listing("1"), sold, other},
		)

		Convey("Then stock is returned as a copy", func() {
			stock, err := m.ListStock(ctx)
			So(err, ShouldBeNil)
			So(len(stock), ShouldEqual, 2)
			stock[0].ID = "changed"
			again, _ := m.ListStock(ctx)
			So(again[0].ID, ShouldEqual, "v1")
		})

		Convey("Then ineligible listings and other sources are filtered", func() {
			page, err := m.CompetitorPage(ctx, CompetitorFilter{Source: "ditec"}, 0, 10)
			So(err, ShouldBeNil)
			So(len(page), ShouldEqual, 1)
			So(page[0].ID, ShouldEqual, "7")

			page, _ = m.CompetitorPage(ctx, CompetitorFilter{}, 1, 10)
			So(len(page), ShouldEqual, 1)
		})

		Convey("When it is told to fail", func() {
			m.Fail(errors.New("connection reset"))

			Convey("Then reads return upstream errors", func() {
				_, err := m.ListStock(ctx)
				So(errors.Is(err, ErrUpstreamRead), ShouldBeTrue)
				_, err = m.CompetitorPage(ctx, CompetitorFilter{}, 0, 10)
				So(errors.Is(err, ErrUpstreamRead), ShouldBeTrue)
			})
		})
	})
}
