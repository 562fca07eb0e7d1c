package quality

// StandardRow 带样本量字码的标准抽样表行
type StandardRow struct {
	Letter string
	ChartRow
}

// StandardGeneralII ISO 2859-1 一般检验水平 II、正常单次抽样，
// 箭头已展开为实际的允收/拒收数。用于空库初始化。
func StandardGeneralII() []StandardRow {
	type acre [2]int
	row := func(letter string, min int, max *int, sample int, a10, a15, a25, a40 acre) StandardRow {
		return StandardRow{
			Letter: letter,
			ChartRow: ChartRow{
				InspectionType: InspectionTypeGeneral,
				Level:          InspectionLevelII,
				SampleSize:     sample,
				LotSize:        LotSizeRange{Min: min, Max: max},
				Entries: []AQLEntry{
					{Level: 1.0, AcceptDefect: a10[0], RejectDefect: a10[1]},
					{Level: 1.5, AcceptDefect: a15[0], RejectDefect: a15[1]},
					{Level: 2.5, AcceptDefect: a25[0], RejectDefect: a25[1]},
					{Level: 4.0, AcceptDefect: a40[0], RejectDefect: a40[1]},
				},
			},
		}
	}
	upTo := func(v int) *int { return &v }

	return []StandardRow{
		row("A", 2, upTo(8), 2, acre{0, 1}, acre{0, 1}, acre{0, 1}, acre{0, 1}),
		row("B", 9, upTo(15), 3, acre{0, 1}, acre{0, 1}, acre{0, 1}, acre{0, 1}),
		row("C", 16, upTo(25), 5, acre{0, 1}, acre{0, 1}, acre{0, 1}, acre{0, 1}),
		row("D", 26, upTo(50), 8, acre{0, 1}, acre{0, 1}, acre{0, 1}, acre{1, 2}),
		row("E", 51, upTo(90), 13, acre{0, 1}, acre{0, 1}, acre{1, 2}, acre{1, 2}),
		row("F", 91, upTo(150), 20, acre{0, 1}, acre{1, 2}, acre{1, 2}, acre{2, 3}),
		row("G", 151, upTo(280), 32, acre{1, 2}, acre{1, 2}, acre{2, 3}, acre{3, 4}),
		row("H", 281, upTo(500), 50, acre{1, 2}, acre{2, 3}, acre{3, 4}, acre{5, 6}),
		row("J", 501, upTo(1200), 80, acre{2, 3}, acre{3, 4}, acre{5, 6}, acre{7, 8}),
		row("K", 1201, upTo(3200), 125, acre{3, 4}, acre{5, 6}, acre{7, 8}, acre{10, 11}),
		row("L", 3201, upTo(10000), 200, acre{5, 6}, acre{7, 8}, acre{10, 11}, acre{14, 15}),
		row("M", 10001, upTo(35000), 315, acre{7, 8}, acre{10, 11}, acre{14, 15}, acre{21, 22}),
		row("N", 35001, upTo(150000), 500, acre{10, 11}, acre{14, 15}, acre{21, 22}, acre{21, 22}),
		row("P", 150001, upTo(500000), 800, acre{14, 15}, acre{21, 22}, acre{21, 22}, acre{21, 22}),
		row("Q", 500001, nil, 1250, acre{21, 22}, acre{21, 22}, acre{21, 22}, acre{21, 22}),
	}
}
