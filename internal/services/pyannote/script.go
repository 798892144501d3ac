package pyannote

// diarizeScript is written next to the audio file and run with uvx. Audio is
// pre-loaded with torchaudio to avoid pyannote's torchcodec decoding path.
const diarizeScript = `#!/usr/bin/env python3
import argparse
import json
import os
import sys
import warnings

warnings.filterwarnings("ignore", message=".*torchcodec.*")

import torch
import torchaudio
from pyannote.audio import Pipeline


def load_audio(path):
    waveform, sr = torchaudio.load(path)
    if waveform.shape[0] > 1:
        waveform = waveform.mean(dim=0, keepdim=True)
    return {"waveform": waveform, "sample_rate": sr}


def main():
    parser = argparse.ArgumentParser()
    parser.add_argument("--audio", required=True)
    parser.add_argument("--model", required=True)
    parser.add_argument("--num-speakers", type=int, default=0)
    args = parser.parse_args()
    try:
        device = torch.device("cuda" if torch.cuda.is_available() else "cpu")
        pipeline = Pipeline.from_pretrained(args.model, token=os.environ.get("HF_TOKEN")).to(device)
        params = {}
        if args.num_speakers > 0:
            params["num_speakers"] = args.num_speakers
        result = pipeline(load_audio(args.audio), **params)
        diarization = result.speaker_diarization if hasattr(result, "speaker_diarization") else result
        turns = [
            {"start": float(turn.start), "end": float(turn.end), "speaker": str(speaker)}
            for turn, _, speaker in diarization.itertracks(yield_label=True)
        ]
        print(json.dumps({"turns": turns}))
    except Exception as e:
        print(json.dumps({"error": f"{type(e).__name__}: {e}"}), file=sys.stderr)
        sys.exit(1)


if __name__ == "__main__":
    main()
`
