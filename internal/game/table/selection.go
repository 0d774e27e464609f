package table

import "github.com/fzj270452746/MJSort/internal/game/core"

// requireSelecting 检查玩家选牌窗口是否打开
func (t *Table) requireSelecting(cmd Command) error {
	switch t.state.Phase {
	case PhaseIdle:
		return t.reject(cmd, core.ErrGameNotStarted)
	case PhaseGameOver:
		return t.reject(cmd, core.ErrGameOver)
	}
	if t.state.Phase != PhaseAwaitingResolution || t.state.Stage != StageSelecting {
		return t.reject(cmd, core.ErrInvalidPhase.WithContext("phase", t.state.Phase.String()))
	}
	return nil
}

// SelectTile 切换一张手牌的选中状态
//
// 选满三张时立即校验组合，结果通过事件通知，选中状态保留。
func (t *Table) SelectTile(id uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSelecting(CmdSelect); err != nil {
		return err
	}

	s := t.state
	if !s.PlayerHand.Contains(id) {
		return t.reject(CmdSelect, core.ErrTileNotInHand.WithContext("tile", id))
	}
	if !s.isSelected(id) && len(s.Selection) >= 3 {
		return t.reject(CmdSelect, core.ErrSelectionFull)
	}

	s.toggle(id)
	t.emit(SelectionChanged{
		Count:    len(s.Selection),
		Selected: append([]uint16(nil), s.Selection...),
	})

	if len(s.Selection) == 3 {
		tiles, err := s.PlayerHand.Pick(s.Selection)
		if err != nil {
			return t.reject(CmdSelect, err)
		}
		result := core.Classify(tiles)
		if result.Valid {
			t.emit(ComboValidated{Type: result.Type, Score: result.Score()})
		} else {
			t.emit(ComboInvalid{Reason: result.Reason})
		}
	}
	return nil
}

// ConfirmRemoval 消除选中的三张牌
func (t *Table) ConfirmRemoval() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSelecting(CmdConfirm); err != nil {
		return err
	}

	s := t.state
	if len(s.Selection) != 3 {
		return t.reject(CmdConfirm, core.ErrNeedThreeTiles.WithContext("selected", len(s.Selection)))
	}

	tiles, err := s.PlayerHand.Pick(s.Selection)
	if err != nil {
		return t.reject(CmdConfirm, err)
	}
	result := core.Classify(tiles)
	if !result.Valid {
		return t.reject(CmdConfirm, core.ErrInvalidCombo.WithContext("reason", result.Reason))
	}

	ids := append([]uint16(nil), s.Selection...)
	if _, err := s.PlayerHand.RemoveIDs(ids); err != nil {
		return t.reject(CmdConfirm, err)
	}
	t.cancelKind(timerCountdown)

	s.Removed += len(ids)
	score := s.Scores.Add(core.SidePlayer, result.Score())

	t.logger.Debug("玩家消除组合", "type", result.Type, "tiles", ids, "score", score)
	t.emit(ComboRemoved{
		Side:      core.SidePlayer,
		ComboType: result.Type,
		Score:     result.Score(),
		TileIDs:   ids,
	})
	t.emit(ScoreChanged{Side: core.SidePlayer, Score: score})

	if s.PlayerHand.IsEmpty() {
		winner := core.SidePlayer
		t.endGame(&winner)
		return nil
	}

	t.passTurn()
	return nil
}

// Skip 放弃本轮消除
func (t *Table) Skip() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSelecting(CmdSkip); err != nil {
		return err
	}

	t.cancelKind(timerCountdown)
	t.logger.Debug("玩家跳过", "round", t.state.Round)
	t.passTurn()
	return nil
}

// TimerExpired 外部倒计时到期，效果与跳过相同
func (t *Table) TimerExpired() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.requireSelecting(CmdTimerExpired); err != nil {
		return err
	}

	t.cancelKind(timerCountdown)
	t.logger.Debug("选牌超时", "round", t.state.Round)
	t.passTurn()
	return nil
}

// countdownExpired 内部倒计时回调，调用方需持有锁
func (t *Table) countdownExpired() {
	if t.state.Phase != PhaseAwaitingResolution || t.state.Stage != StageSelecting {
		return
	}

	t.logger.Debug("选牌倒计时结束", "round", t.state.Round)
	t.passTurn()
}
