package table

import "github.com/fzj270452746/MJSort/internal/game/core"

// BalanceInput 轮换判断需要的计数
type BalanceInput struct {
	Turn          core.Side
	Round         int
	PlayerDeals   int
	ComputerDeals int
	Forced        bool
}

// lead 领先方多发的牌数，正数表示玩家领先
func (in BalanceInput) lead() int {
	return in.PlayerDeals - in.ComputerDeals
}

// BalanceTurn 发牌前修正轮到谁，返回修正后的一方和强制轮换标记
//
// 规则依次生效，后面的规则可以覆盖前面的结果：
// 强制标记下发给牌少的一方（相等时清除标记）；第三轮起电脑还未拿过牌则发给电脑；
// 任意一方多出超过一张时发给另一方并设置强制标记。
func BalanceTurn(in BalanceInput) (core.Side, bool) {
	turn, forced := in.Turn, in.Forced

	if forced {
		switch {
		case in.lead() > 0:
			turn = core.SideComputer
		case in.lead() < 0:
			turn = core.SidePlayer
		default:
			forced = false
		}
	}

	if in.Round >= 3 && in.ComputerDeals == 0 {
		turn = core.SideComputer
	}

	if in.lead() > 1 {
		turn = core.SideComputer
		forced = true
	}

	if in.lead() < -1 {
		turn = core.SidePlayer
		forced = true
	}

	return turn, forced
}

// RedirectOnSettle 结算前的复查
//
// 返回 redirect 为 true 时跳过本次结算，直接把回合交给返回的一方并安排发牌。
func RedirectOnSettle(in BalanceInput) (turn core.Side, forced bool, redirect bool) {
	if in.lead() > 1 {
		return core.SideComputer, true, true
	}
	if in.lead() < -1 {
		return core.SidePlayer, true, true
	}
	if in.Round >= 3 && in.ComputerDeals == 0 && in.Turn == core.SidePlayer {
		return core.SideComputer, in.Forced, true
	}
	return in.Turn, in.Forced, false
}
