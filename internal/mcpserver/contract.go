package mcpserver

// EditingContract describes the timeline model and the editing rules that
// LLM consumers should follow when driving the editor.
const EditingContract = `# Montage Editing Contract

Montage edits a single in-memory project: an ordered list of tracks, each
holding timed clips. Read this before calling the editing tools.

## Model

- **Time** is in seconds (floating point). The playhead is ` + "`" + `currentTime` + "`" + `.
- **Tracks** are ` + "`" + `visual` + "`" + ` or ` + "`" + `audio` + "`" + `. Track order is z-order:
  later tracks draw above earlier ones. A new project has track ` + "`" + `1` + "`" + ` (visual)
  and track ` + "`" + `2` + "`" + ` (audio) and lasts 60 seconds.
- **Clips** have a kind (` + "`" + `video` + "`" + `, ` + "`" + `image` + "`" + `, ` + "`" + `text` + "`" + `, ` + "`" + `audio` + "`" + `),
  a ` + "`" + `start` + "`" + ` and a ` + "`" + `duration` + "`" + `. A clip is live on ` + "`" + `[start, start+duration)` + "`" + `.
- **Assets** come from the media library (` + "`" + `list_assets` + "`" + `). Place them by id.

## Placement

1. ` + "`" + `place_asset` + "`" + ` without ` + "`" + `track_id` + "`" + ` uses the first track of the matching kind
   (audio assets go to audio tracks, everything else to visual tracks).
2. Without ` + "`" + `start` + "`" + ` the clip lands at the playhead. Use ` + "`" + `seek` + "`" + ` first.
3. Unknown durations default to 10 s for video/audio and 5 s for image/text.
4. The project grows to fit a placed clip plus 5 s of padding. It never shrinks.
5. Clips may overlap. Nothing is moved or trimmed to make room.
6. Locked tracks refuse placement. Muted tracks are ignored by preview.

## Properties

` + "`" + `update_clip_properties` + "`" + ` merges only the fields you pass:

| field | range | default |
|---|---|---|
| opacity | 0 to 100 | 100 |
| scale | 0 or more (percent) | 100 |
| position_x, position_y | any (pixels) | 0 |
| rotation | any (degrees) | 0 |
| volume | 0 to 100 | 100 |
| speed | above 0 | 1 |

Without ` + "`" + `clip_id` + "`" + ` the selected clip is updated. A freshly placed clip is selected.

## Preview

` + "`" + `resolve_frame` + "`" + ` shows what renders at a time: the topmost live visual clip
(the last one in track order, then clip order) and every live audio clip.
Nothing live means an empty frame.

## Generated assets

- Captions and scripts: ` + "`" + `add_generated_text` + "`" + ` creates a text asset whose name is
  the text itself (at most 500 characters are kept in the name).
- Images and audio: ` + "`" + `upload_asset` + "`" + ` accepts a ` + "`" + `data:` + "`" + ` URI (base64) or an
  http(s) URL. Supported: png, jpg, jpeg, gif, webp, mp3, wav.
- Pass ` + "`" + `place: true` + "`" + ` to put the new asset on the timeline at the playhead.
`
