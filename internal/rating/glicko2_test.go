package rating

import "testing"

func TestWinnerIncreasesLoserDecreases(t *testing.T) {
	a := NewRating()
	b := NewRating()

	newA := Update(a, b, Win)
	newB := Update(b, a, Loss)

	if newA.Value <= a.Value {
		t.Fatalf("expected winner rating to increase, got %v -> %v", a.Value, newA.Value)
	}
	if newB.Value >= b.Value {
		t.Fatalf("expected loser rating to decrease, got %v -> %v", b.Value, newB.Value)
	}
}

func TestStrongerPlayerGainsLessForExpectedWin(t *testing.T) {
	strong := Rating{Value: 1800, RD: 80, Volatility: DefaultVolatility}
	weak := Rating{Value: 1200, RD: 80, Volatility: DefaultVolatility}

	strongAfterWin := Update(strong, weak, Win)
	evenAfterWin := Update(NewRating(), NewRating(), Win)

	strongGain := strongAfterWin.Value - strong.Value
	evenGain := evenAfterWin.Value - DefaultRating
	if strongGain >= evenGain {
		t.Fatalf("expected the favored winner to gain less than an even match winner: %v vs %v", strongGain, evenGain)
	}
}
