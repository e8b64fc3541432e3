package tradelog

import "aurex/internal/venue"

// JournaledVenue 在转发订单的同时落一条流水。
type JournaledVenue struct {
	Inner venue.Venue
	Rec   Recorder
}

func (j *JournaledVenue) PlaceOrder(order venue.Order) error {
	err := j.Inner.PlaceOrder(order)
	if err == nil {
		j.Rec.RecordOrder(order)
	}
	return err
}

func (j *JournaledVenue) Flatten(symbol string, price float64, lots int, reason string) error {
	err := j.Inner.Flatten(symbol, price, lots, reason)
	if err == nil && lots != 0 {
		side := venue.Sell
		n := lots
		if lots < 0 {
			side = venue.Buy
			n = -lots
		}
		j.Rec.RecordOrder(venue.Order{Symbol: symbol, Side: side, Price: price, Lots: n, Reduce: true, Reason: reason})
	}
	return err
}

func (j *JournaledVenue) CurrentPosition(symbol string) (int, bool) {
	return j.Inner.CurrentPosition(symbol)
}
