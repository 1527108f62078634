package rewards

import "testing"

func TestWholeGB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		plan string
		want int
	}{
		{name: "whole gigabytes", plan: "2GB Monthly", want: 2},
		{name: "fraction truncates", plan: "2.3GB Monthly Plan", want: 2},
		{name: "below one gigabyte", plan: "0.9GB Daily", want: 0},
		{name: "megabytes", plan: "500MB Weekly", want: 0},
		{name: "megabytes above a gigabyte", plan: "1536MB", want: 1},
		{name: "terabytes", plan: "1TB Ultra", want: 1024},
		{name: "lowercase unit", plan: "10gb stream pack", want: 10},
		{name: "whitespace before unit", plan: "4.5 GB night plan", want: 4},
		{name: "no size in name", plan: "Unlimited Lite", want: 0},
		{name: "empty name", plan: "", want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := WholeGB(tt.plan); got != tt.want {
				t.Fatalf("WholeGB(%q) = %d, want %d", tt.plan, got, tt.want)
			}
		})
	}
}
