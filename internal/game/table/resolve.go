package table

import "github.com/fzj270452746/MJSort/internal/game/core"

// settle 发牌后的结算回调，调用方需持有锁
func (t *Table) settle() {
	s := t.state
	if s.Phase != PhaseAwaitingResolution || s.Stage != StageSettling {
		return
	}

	if turn, forced, redirect := RedirectOnSettle(s.balanceInput()); redirect {
		t.logger.Debug("结算前修正回合",
			"from", s.CurrentTurn,
			"to", turn,
			"playerDeals", s.PlayerDeals,
			"computerDeals", s.ComputerDeals)
		s.ForcedBalance = forced
		t.setTurn(turn)
		t.scheduleNextDeal()
		return
	}

	if s.CurrentTurn == core.SideComputer {
		t.resolveComputer()
		return
	}
	t.resolvePlayer()
}

// resolveComputer 电脑自动消除第一个可用组合
func (t *Table) resolveComputer() {
	s := t.state

	combos := core.FindAll(s.ComputerHand.Raw())
	if len(combos) == 0 {
		// 没有组合时轮次不变
		t.setTurn(core.SidePlayer)
		t.scheduleNextDeal()
		return
	}

	combo := combos[0]
	if _, err := s.ComputerHand.RemoveIDs(combo.IDs()); err != nil {
		t.logger.Error("电脑消除组合失败", "error", err)
		t.setTurn(core.SidePlayer)
		t.scheduleNextDeal()
		return
	}
	s.Removed += len(combo.IDs())
	score := s.Scores.Add(core.SideComputer, combo.Score())

	t.logger.Debug("电脑消除组合", "type", combo.Type, "tiles", combo.IDs(), "score", score)
	t.emit(ComboAutoResolved{
		Side:      core.SideComputer,
		ComboType: combo.Type,
		Score:     combo.Score(),
		TileIDs:   combo.IDs(),
	})
	t.emit(ScoreChanged{Side: core.SideComputer, Score: score})

	if s.ComputerHand.IsEmpty() {
		winner := core.SideComputer
		t.endGame(&winner)
		return
	}

	s.Round++
	t.setTurn(core.SidePlayer)
	t.scheduleNextDeal()
}

// resolvePlayer 玩家手牌足够时打开选牌窗口，否则轮到电脑
func (t *Table) resolvePlayer() {
	s := t.state

	if s.PlayerHand.Size() < 3 {
		t.setTurn(core.SideComputer)
		t.scheduleNextDeal()
		return
	}

	s.Selection = nil
	s.Recommended = nil
	s.Stage = StageSelecting

	event := SelectionPhaseStarted{Countdown: t.cfg.CountdownTicks}
	if combos := core.FindAll(s.PlayerHand.Raw()); len(combos) > 0 {
		rec := combos[0]
		s.Recommended = &rec
		comboType := rec.Type
		comboScore := rec.Score()
		event.Recommended = rec.IDs()
		event.ComboType = &comboType
		event.ComboScore = &comboScore
	}

	t.logger.Debug("打开选牌窗口", "handSize", s.PlayerHand.Size(), "hasRecommendation", s.Recommended != nil)
	t.emit(event)

	t.schedule(timerCountdown, t.cfg.CountdownTicks, t.countdownExpired)
}

// passTurn 结束玩家本轮（跳过、超时或消除后），轮次加一并轮到电脑
func (t *Table) passTurn() {
	s := t.state
	s.Selection = nil
	s.Recommended = nil
	s.Round++
	t.setTurn(core.SideComputer)
	t.scheduleNextDeal()
}

// endGame 结算并结束牌局，winner 为空时按分数比较
func (t *Table) endGame(winner *core.Side) {
	s := t.state
	if s.Phase == PhaseGameOver {
		return
	}

	t.cancelAll()

	outcome := core.DecideOutcome(s.Scores, winner)
	s.Outcome = &outcome
	s.Phase = PhaseGameOver
	s.Stage = StageNone
	s.Selection = nil
	s.Recommended = nil

	t.logger.Info("牌局结束",
		"reason", outcome.Reason,
		"winner", winnerName(outcome.Winner),
		"playerScore", outcome.PlayerScore,
		"computerScore", outcome.ComputerScore,
		"round", s.Round)

	t.emit(GameEnded{
		Winner:         outcome.Winner,
		PlayerScore:    outcome.PlayerScore,
		ComputerScore:  outcome.ComputerScore,
		Reward:         outcome.PlayerReward,
		ComputerReward: outcome.ComputerReward,
		Reason:         outcome.Reason,
	})
}

func winnerName(winner *core.Side) string {
	if winner == nil {
		return "tie"
	}
	return winner.String()
}
