package fyne

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	fyneapp "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/auraplay/auraplay/internal/adapter/ui/fyne/widgets"
	"github.com/auraplay/auraplay/internal/domain"
)

// Window dimensions.
const (
	windowWidth  = 960
	windowHeight = 640
)

// spectrumBarCount is how many bars the visualizer renders.
const spectrumBarCount = 32

// bandLabels are the center frequencies of the graphic equalizer bands.
var bandLabels = [domain.BandCount]string{"60", "310", "1K", "3K", "6K", "12K"}

// Playlist view selector entries.
const (
	viewLabelAll   = "All Tracks"
	viewLabelLiked = "Liked"
)

// MainWindow is the main UI window implementing the UIView interface.
//
// The MainWindow follows the MVP pattern:
// - It's a "dumb view" that just displays data
// - All business logic is in the Presenter
// - User interactions are forwarded to the Presenter
type MainWindow struct {
	app    fyneapp.App
	window fyneapp.Window
	logger *slog.Logger

	// Transport controls
	prevButton     *widget.Button
	playButton     *widget.Button
	nextButton     *widget.Button
	muteButton     *widget.Button
	repeatButton   *widget.Button
	likeButton     *widget.Button
	currentTime    *widget.Label
	endTime        *widget.Label
	progressSlider *widget.Slider
	volumeSlider   *widget.Slider

	// Track info
	titleLabel  *widget.Label
	artistLabel *widget.Label
	vibeLabel   *widget.Label
	errorLabel  *widget.Label
	albumArt    *canvas.Image

	// Playlist
	playlistList *widget.List
	viewSelect   *widget.Select

	// Equalizer and effects
	bandSliders  [domain.BandCount]*widget.Slider
	presetSelect *widget.Select
	effectsBox   *fyneapp.Container

	// Identity
	signButton    *widget.Button
	identityLabel *widget.Label

	// Visualizer
	visualizer *widgets.SpectrumBars

	// List state, read by the list callbacks
	mu            sync.RWMutex
	displayTracks []domain.Track
	currentID     string
	seeking       bool
	artGeneration int

	// Lifecycle management
	closeOnce sync.Once

	// Presenter (set after construction)
	presenter *Presenter
}

// NewMainWindow creates the main window and builds its widget tree.
func NewMainWindow(app fyneapp.App, logger *slog.Logger) *MainWindow {
	w := &MainWindow{
		app:    app,
		logger: logger,
	}

	w.window = app.NewWindow("AuraPlay")
	w.buildUI()
	w.window.Resize(fyneapp.Size{Width: windowWidth, Height: windowHeight})

	return w
}

// SetPresenter connects the presenter to this view.
// This must be called before showing the window.
func (w *MainWindow) SetPresenter(presenter *Presenter) {
	w.presenter = presenter
	w.wirePresenterHandlers()
}

// buildUI constructs the UI components.
func (w *MainWindow) buildUI() {
	// Album art and track info
	w.albumArt = canvas.NewImageFromResource(theme.MediaMusicIcon())
	w.albumArt.FillMode = canvas.ImageFillContain
	w.albumArt.SetMinSize(fyneapp.NewSize(160, 160))

	w.titleLabel = widget.NewLabel("No track loaded")
	w.titleLabel.TextStyle = fyneapp.TextStyle{Bold: true}
	w.titleLabel.Truncation = fyneapp.TextTruncateEllipsis
	w.artistLabel = widget.NewLabel("")
	w.vibeLabel = widget.NewLabel("")
	w.vibeLabel.TextStyle = fyneapp.TextStyle{Italic: true}
	w.vibeLabel.Wrapping = fyneapp.TextWrapWord
	w.errorLabel = widget.NewLabel("")
	w.errorLabel.Importance = widget.DangerImportance
	w.errorLabel.Hide()

	// Identity
	w.identityLabel = widget.NewLabel("")
	w.identityLabel.Hide()
	w.signButton = widget.NewButtonWithIcon("Sign In", theme.AccountIcon(), nil)

	infoBox := container.NewVBox(w.titleLabel, w.artistLabel, w.vibeLabel, w.errorLabel)
	identityBox := container.NewVBox(w.identityLabel, w.signButton)
	header := container.NewBorder(nil, nil, w.albumArt, identityBox, infoBox)

	// Visualizer
	w.visualizer = widgets.NewSpectrumBars(spectrumBarCount)

	// Transport buttons
	w.prevButton = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), nil)
	w.playButton = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), nil)
	w.nextButton = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), nil)
	w.muteButton = widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil)
	w.repeatButton = widget.NewButton("Repeat: none", nil)
	w.likeButton = widget.NewButtonWithIcon("", theme.ConfirmIcon(), nil)

	// Progress and volume
	w.progressSlider = widget.NewSlider(0, 1)
	w.currentTime = widget.NewLabel("00:00")
	w.endTime = widget.NewLabel("00:00")
	progressRow := container.NewBorder(nil, nil, w.currentTime, w.endTime, w.progressSlider)

	w.volumeSlider = widget.NewSlider(0, 100)
	volumeRow := container.NewBorder(nil, nil, w.muteButton, nil, w.volumeSlider)

	buttonsRow := container.NewHBox(
		w.prevButton, w.playButton, w.nextButton,
		w.repeatButton, w.likeButton,
	)
	transport := container.NewVBox(progressRow, container.NewBorder(nil, nil, buttonsRow, nil, volumeRow))

	// Equalizer sliders
	sliders := make([]fyneapp.CanvasObject, 0, domain.BandCount)
	for band := 0; band < domain.BandCount; band++ {
		slider := widget.NewSlider(domain.MinBandGain, domain.MaxBandGain)
		slider.Orientation = widget.Vertical
		slider.Step = 1
		w.bandSliders[band] = slider
		sliders = append(sliders, container.NewBorder(
			nil, widget.NewLabel(bandLabels[band]), nil, nil, slider,
		))
	}
	w.presetSelect = widget.NewSelect(append([]string{}, domain.PresetNames...), nil)
	w.effectsBox = container.NewHBox()
	eqPanel := container.NewBorder(
		w.presetSelect, w.effectsBox, nil, nil,
		container.NewGridWithColumns(domain.BandCount, sliders...),
	)

	// Playlist
	w.viewSelect = widget.NewSelect([]string{viewLabelAll, viewLabelLiked}, nil)
	w.viewSelect.SetSelected(viewLabelAll)
	w.playlistList = widget.NewList(
		func() int {
			w.mu.RLock()
			defer w.mu.RUnlock()
			return len(w.displayTracks)
		},
		func() fyneapp.CanvasObject {
			label := widget.NewLabel("")
			label.Truncation = fyneapp.TextTruncateEllipsis
			return label
		},
		func(id widget.ListItemID, item fyneapp.CanvasObject) {
			w.mu.RLock()
			defer w.mu.RUnlock()
			if id < 0 || id >= len(w.displayTracks) {
				return
			}
			track := w.displayTracks[id]
			text := fmt.Sprintf("%s - %s", track.Artist, track.Title)
			if track.ID == w.currentID {
				text = "> " + text
			}
			item.(*widget.Label).SetText(text)
		},
	)
	playlistPanel := container.NewBorder(w.viewSelect, nil, nil, nil, w.playlistList)

	// Main layout
	left := container.NewBorder(header, transport, nil, nil, w.visualizer)
	right := container.NewVSplit(playlistPanel, eqPanel)
	right.SetOffset(0.6)
	split := container.NewHSplit(left, right)
	split.SetOffset(0.62)
	w.window.SetContent(container.NewPadded(split))

	w.window.SetMainMenu(fyneapp.NewMainMenu(w.createMenu()...))
}

// wirePresenterHandlers connects UI events to presenter handlers.
func (w *MainWindow) wirePresenterHandlers() {
	if w.presenter == nil {
		return
	}

	w.playButton.OnTapped = w.presenter.OnPlayPauseClicked
	w.nextButton.OnTapped = w.presenter.OnNextClicked
	w.prevButton.OnTapped = w.presenter.OnPreviousClicked
	w.muteButton.OnTapped = w.presenter.OnMuteClicked
	w.repeatButton.OnTapped = w.presenter.OnRepeatClicked
	w.likeButton.OnTapped = w.presenter.OnLikeClicked
	w.signButton.OnTapped = w.presenter.OnSignInClicked

	w.volumeSlider.OnChanged = func(value float64) {
		w.presenter.OnVolumeChanged(value / 100.0)
	}

	// Progress updates are suppressed while the user drags the knob, so
	// the slider doesn't fight the scrub.
	w.progressSlider.OnChanged = func(float64) {
		w.mu.Lock()
		alreadySeeking := w.seeking
		w.seeking = true
		w.mu.Unlock()
		if !alreadySeeking {
			w.presenter.OnScrubStarted()
		}
	}
	w.progressSlider.OnChangeEnded = func(value float64) {
		w.mu.Lock()
		w.seeking = false
		w.mu.Unlock()
		w.presenter.OnScrubReleased(time.Duration(value * float64(time.Second)))
	}

	w.playlistList.OnSelected = func(id widget.ListItemID) {
		w.playlistList.UnselectAll()
		w.presenter.OnTrackSelected(id)
	}

	w.viewSelect.OnChanged = func(label string) {
		if label == viewLabelLiked {
			w.presenter.OnViewSelected(domain.ViewLiked)
		} else {
			w.presenter.OnViewSelected(domain.ViewAll)
		}
	}

	for band := 0; band < domain.BandCount; band++ {
		band := band
		w.bandSliders[band].OnChangeEnded = func(value float64) {
			w.presenter.OnBandChanged(band, value)
		}
	}
	w.presetSelect.OnChanged = func(name string) {
		w.presenter.OnPresetSelected(name)
	}
}

// createMenu creates the application menu.
func (w *MainWindow) createMenu() []*fyneapp.Menu {
	separator := fyneapp.NewMenuItemSeparator()

	openFile := fyneapp.NewMenuItem("Open File...", func() {
		w.handleOpenFile()
	})
	openFolder := fyneapp.NewMenuItem("Open Folder...", func() {
		w.handleOpenFolder()
	})
	signOut := fyneapp.NewMenuItem("Sign Out", func() {
		if w.presenter != nil {
			w.presenter.OnSignOutClicked()
		}
	})
	exitMenu := fyneapp.NewMenuItem("Exit", func() {
		w.window.Close()
	})

	fileMenu := fyneapp.NewMenu("File", openFile, openFolder, separator, signOut, separator, exitMenu)
	return []*fyneapp.Menu{fileMenu}
}

func (w *MainWindow) handleOpenFile() {
	if w.presenter == nil {
		return
	}
	NewFileDialog(w.window, w.presenter.OnFilesOpened, w.logger).Show()
}

func (w *MainWindow) handleOpenFolder() {
	if w.presenter == nil {
		return
	}
	NewFolderDialog(w.window, w.presenter.OnFilesOpened, w.logger).Show()
}

// ShowAndRun shows the window and runs the application.
func (w *MainWindow) ShowAndRun() {
	w.window.ShowAndRun()
}

// Close closes the window. It's safe to call multiple times.
func (w *MainWindow) Close() {
	w.closeOnce.Do(func() {
		w.window.Close()
	})
}

// GetWindow returns the underlying Fyne window.
func (w *MainWindow) GetWindow() fyneapp.Window {
	return w.window
}

// UIView interface implementation

// SetPlayState updates the play/pause button state.
func (w *MainWindow) SetPlayState(playing bool) {
	if playing {
		w.playButton.SetIcon(theme.MediaPauseIcon())
	} else {
		w.playButton.SetIcon(theme.MediaPlayIcon())
	}
	w.playButton.Refresh()
}

// SetMuteState updates the mute button state.
func (w *MainWindow) SetMuteState(muted bool) {
	if muted {
		w.muteButton.SetIcon(theme.VolumeMuteIcon())
	} else {
		w.muteButton.SetIcon(theme.VolumeUpIcon())
	}
	w.muteButton.Refresh()
}

// SetRepeatState updates the repeat button label.
func (w *MainWindow) SetRepeatState(mode domain.RepeatMode) {
	w.repeatButton.SetText("Repeat: " + mode.String())
}

// SetVolume updates the volume slider (0.0 to 1.0).
func (w *MainWindow) SetVolume(volume float64) {
	w.volumeSlider.Value = volume * 100.0
	w.volumeSlider.Refresh()
}

// SetProgress updates the progress slider and the time labels.
func (w *MainWindow) SetProgress(position, duration time.Duration) {
	w.mu.RLock()
	seeking := w.seeking
	w.mu.RUnlock()

	w.currentTime.SetText(formatDuration(position))
	w.endTime.SetText(formatDuration(duration))

	if seeking {
		return
	}
	w.progressSlider.Max = duration.Seconds()
	w.progressSlider.Value = position.Seconds()
	w.progressSlider.Refresh()
}

// SetTrackInfo updates the track labels and fetches the artwork.
func (w *MainWindow) SetTrackInfo(title, artist, artworkURL string) {
	w.titleLabel.SetText(title)
	w.artistLabel.SetText(artist)
	w.fetchArtwork(artworkURL)
}

// SetVibeLoading shows the vibe placeholder while a lookup is in flight.
func (w *MainWindow) SetVibeLoading() {
	w.vibeLabel.SetText("Reading the vibe...")
}

// SetVibe displays the vibe sentence for the current track.
func (w *MainWindow) SetVibe(text string) {
	w.vibeLabel.SetText(text)
}

// SetPlaylist updates the track list display and the playing-row marker.
func (w *MainWindow) SetPlaylist(tracks []domain.Track, currentID string) {
	w.mu.Lock()
	w.displayTracks = tracks
	w.currentID = currentID
	w.mu.Unlock()
	w.playlistList.Refresh()
}

// SetViewFilter syncs the view selector with the active projection.
func (w *MainWindow) SetViewFilter(view domain.PlaylistView) {
	label := viewLabelAll
	if view == domain.ViewLiked {
		label = viewLabelLiked
	}
	if w.viewSelect.Selected != label {
		w.viewSelect.Selected = label
		w.viewSelect.Refresh()
	}
}

// SetBandGains syncs all equalizer sliders.
func (w *MainWindow) SetBandGains(gains [domain.BandCount]float64) {
	for band, gain := range gains {
		w.bandSliders[band].Value = gain
		w.bandSliders[band].Refresh()
	}
}

// SetPresetName syncs the preset selector.
func (w *MainWindow) SetPresetName(name string) {
	if w.presetSelect.Selected == name {
		return
	}
	w.presetSelect.Selected = name
	w.presetSelect.Refresh()
}

// SetEffects rebuilds the effect toggle buttons.
func (w *MainWindow) SetEffects(effects []domain.Effect, active string) {
	w.effectsBox.RemoveAll()
	for _, effect := range effects {
		effect := effect
		button := widget.NewButton(effect.Name, func() {
			if w.presenter != nil {
				w.presenter.OnEffectClicked(effect.Name)
			}
		})
		if effect.Name == active {
			button.Importance = widget.HighImportance
		}
		w.effectsBox.Add(button)
	}
	w.effectsBox.Refresh()
}

// SetIdentity updates the sign-in area.
func (w *MainWindow) SetIdentity(identity *domain.Identity) {
	if identity == nil {
		w.identityLabel.Hide()
		w.signButton.Show()
		return
	}
	w.identityLabel.SetText(identity.DisplayName)
	w.identityLabel.Show()
	w.signButton.Hide()
}

// ShowPlaybackError displays a transient playback failure message.
func (w *MainWindow) ShowPlaybackError(message string) {
	w.errorLabel.SetText(message)
	w.errorLabel.Show()
}

// ClearPlaybackError hides the playback failure message.
func (w *MainWindow) ClearPlaybackError() {
	w.errorLabel.Hide()
}

// SetSpectrum feeds the visualizer.
func (w *MainWindow) SetSpectrum(bins []float64) {
	w.visualizer.Update(bins)
}

// fetchArtwork loads the artwork image in the background. A stale fetch
// that finishes after a newer one started is dropped.
func (w *MainWindow) fetchArtwork(artworkURL string) {
	w.mu.Lock()
	w.artGeneration++
	generation := w.artGeneration
	w.mu.Unlock()

	if artworkURL == "" {
		w.albumArt.Resource = theme.MediaMusicIcon()
		w.albumArt.Image = nil
		w.albumArt.Refresh()
		return
	}

	go func() {
		resp, err := http.Get(artworkURL)
		if err != nil {
			w.logger.Debug("artwork fetch failed", slog.Any("error", err))
			return
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		var buf bytes.Buffer
		if _, err := buf.ReadFrom(resp.Body); err != nil {
			return
		}
		img, _, err := image.Decode(&buf)
		if err != nil {
			w.logger.Debug("artwork decode failed", slog.Any("error", err))
			return
		}

		w.mu.Lock()
		stale := generation != w.artGeneration
		w.mu.Unlock()
		if stale {
			return
		}

		w.albumArt.Resource = nil
		w.albumArt.Image = img
		w.albumArt.Refresh()
	}()
}

// formatDuration renders a duration as mm:ss.
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Verify UIView implementation
var _ UIView = (*MainWindow)(nil)
